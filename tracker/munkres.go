package tracker

import (
	"errors"
	"fmt"
	"math"
)

// ForbiddenCost marks a cost matrix entry that must never be assigned
const ForbiddenCost float32 = 1e18

// ErrDegenerateMatrix is returned by Munkres when the cost matrix can not be
// solved, such as ragged rows or NaN entries
var ErrDegenerateMatrix = errors.New("degenerate cost matrix")

// Munkres solves the rectangular minimum cost assignment problem using the
// Kuhn-Munkres (Hungarian) algorithm with row and column potentials in
// O(n³) time.
//
// It returns assignments[i] = column assigned to row i, or -1 if row i is
// unassigned.  Entries with cost >= ForbiddenCost are never selected.
// When several assignments share the minimum cost the one reaching the lowest
// column index first is chosen, so identical input always gives identical
// output.
func Munkres(cost [][]float32) ([]int, error) {

	n := len(cost)
	if n == 0 {
		return nil, nil
	}

	m := len(cost[0])

	for i := range cost {
		if len(cost[i]) != m {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d",
				ErrDegenerateMatrix, i, len(cost[i]), m)
		}

		for j, c := range cost[i] {
			if math.IsNaN(float64(c)) || math.IsInf(float64(c), -1) {
				return nil, fmt.Errorf("%w: invalid cost %v at (%d,%d)",
					ErrDegenerateMatrix, c, i, j)
			}
		}
	}

	result := make([]int, n)

	for i := range result {
		result[i] = -1
	}

	if m == 0 {
		return result, nil
	}

	// pad to a square matrix, padding entries are forbidden so excess rows
	// or columns stay unassigned
	dim := n
	if m > dim {
		dim = m
	}

	// forbidden entries are replaced with a penalty larger than any sum of
	// allowed costs, keeping potentials small enough for float64 precision
	maxAbs := 0.0

	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if cost[i][j] < ForbiddenCost {
				maxAbs = math.Max(maxAbs, math.Abs(float64(cost[i][j])))
			}
		}
	}

	penalty := (2*maxAbs + 1) * float64(dim+1)

	c := make([][]float64, dim)

	for i := 0; i < dim; i++ {
		c[i] = make([]float64, dim)

		for j := 0; j < dim; j++ {
			if i < n && j < m && cost[i][j] < ForbiddenCost {
				c[i][j] = float64(cost[i][j])
			} else {
				c[i][j] = penalty
			}
		}
	}

	const inf = math.MaxFloat64 / 2

	// 1-indexed, column 0 is a virtual column used to start each augmenting
	// path
	u := make([]float64, dim+1)
	v := make([]float64, dim+1)
	p := make([]int, dim+1)
	way := make([]int, dim+1)
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0

		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1

			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}

				cur := c[i0-1][j-1] - u[i0] - v[j]

				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}

				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			if j1 < 0 {
				return nil, fmt.Errorf("%w: no augmenting path for row %d",
					ErrDegenerateMatrix, i-1)
			}

			for j := 0; j <= dim; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1

			if p[j0] == 0 {
				break
			}
		}

		// augment along the path
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	for j := 1; j <= dim; j++ {
		row := p[j] - 1

		if row < 0 || row >= n || j-1 >= m {
			continue
		}

		if cost[row][j-1] >= ForbiddenCost {
			continue
		}

		result[row] = j - 1
	}

	return result, nil
}

// Matches holds the result of a thresholded linear assignment
type Matches struct {
	// Pairs of matched [row, column] indices
	Pairs [][2]int
	// UnmatchedRows are row indices without an accepted assignment
	UnmatchedRows []int
	// UnmatchedCols are column indices without an accepted assignment
	UnmatchedCols []int
}

// LinearAssignment runs Munkres over the cost matrix and keeps the
// assignments accepted by the accept function.  An empty or degenerate
// matrix degrades to nothing matched with the error returned for logging.
func LinearAssignment(cost [][]float32, rows, cols int,
	accept func(row, col int) bool) (Matches, error) {

	var res Matches

	unmatchAll := func() {
		res.Pairs = nil
		res.UnmatchedRows = seq(rows)
		res.UnmatchedCols = seq(cols)
	}

	if rows == 0 || cols == 0 {
		unmatchAll()
		return res, nil
	}

	assign, err := Munkres(cost)

	if err != nil {
		unmatchAll()
		return res, err
	}

	colUsed := make([]bool, cols)

	for row, col := range assign {
		if col >= 0 && (accept == nil || accept(row, col)) {
			res.Pairs = append(res.Pairs, [2]int{row, col})
			colUsed[col] = true
		} else {
			res.UnmatchedRows = append(res.UnmatchedRows, row)
		}
	}

	for col, used := range colUsed {
		if !used {
			res.UnmatchedCols = append(res.UnmatchedCols, col)
		}
	}

	return res, nil
}

func seq(n int) []int {
	if n == 0 {
		return nil
	}

	s := make([]int, n)

	for i := range s {
		s[i] = i
	}

	return s
}
