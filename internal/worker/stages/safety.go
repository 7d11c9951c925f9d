package stages

import (
	"errors"
	"fmt"
)

// SafetyError reports which Stage 3 check failed. A Yanked failure must
// drive the job to a quarantined terminal state rather than fail.
type SafetyError struct {
	Kind       string
	Submitted  string
	Existing   string
	Distance   int
	NameAtVer  string
}

func (e *SafetyError) Error() string {
	switch e.Kind {
	case "name-squatting":
		return fmt.Sprintf("name '%s' is too similar to existing package '%s' (Levenshtein distance %d)", e.Submitted, e.Existing, e.Distance)
	case "yanked-version":
		return fmt.Sprintf("package '%s' was previously yanked and cannot be re-published at the same version", e.NameAtVer)
	default:
		return "safety check failed"
	}
}

// IsYanked reports whether err is a Stage 3 yank-reupload failure, the
// case the pipeline maps to a quarantined job status instead of fail.
func IsYanked(err error) bool {
	var se *SafetyError
	return errors.As(err, &se) && se.Kind == "yanked-version"
}

// Levenshtein computes the classical O(m·n) edit distance between a and b.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	m, n := len(ra), len(rb)

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
		dp[i][0] = i
	}
	for j := 0; j <= n; j++ {
		dp[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if ra[i-1] == rb[j-1] {
				dp[i][j] = dp[i-1][j-1]
			} else {
				dp[i][j] = 1 + min3(dp[i-1][j], dp[i][j-1], dp[i-1][j-1])
			}
		}
	}
	return dp[m][n]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// IsSquatting reports whether name is within Levenshtein distance [1, 2]
// of any name in existing.
func IsSquatting(name string, existing []string) bool {
	for _, e := range existing {
		d := Levenshtein(name, e)
		if d > 0 && d <= 2 {
			return true
		}
	}
	return false
}

// CheckSafety runs Stage 3: name-squatting against every existing package
// name registry-wide, then yank-reupload against the set of previously
// yanked (name, version) pairs.
func CheckSafety(name, version string, existingNames []string, yanked [][2]string) error {
	for _, existing := range existingNames {
		d := Levenshtein(name, existing)
		if d > 0 && d <= 2 {
			return &SafetyError{Kind: "name-squatting", Submitted: name, Existing: existing, Distance: d}
		}
	}

	for _, yv := range yanked {
		if yv[0] == name && yv[1] == version {
			return &SafetyError{Kind: "yanked-version", NameAtVer: fmt.Sprintf("%s@%s", name, version)}
		}
	}

	return nil
}
