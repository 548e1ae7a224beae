package scan

import "regexp"

// The detector set is a fixed, ordered list of labeled patterns. Detectors
// are independent and additive: every non-overlapping occurrence of every
// pattern is reported, detector order first, then occurrence order within
// the text. CMND and TAX are bare digit-count heuristics with no checksum
// or context validation; any 10-digit run reads as a tax code. Known
// false-positive rate, kept deliberately loose.
var detectors = []struct {
	label string
	re    *regexp.Regexp
	group int
}{
	{"EMAIL", regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), 0},
	{"CMND", regexp.MustCompile(`\b\d{9}\b|\b\d{12}\b`), 0},
	{"TAX", regexp.MustCompile(`\b\d{10}\b`), 0},
	{"BANK", regexp.MustCompile(`(?i)(số tài khoản|stk|account)[:\s]*([0-9\- ]{6,30})`), 2},
}

// FindSensitiveData runs every detector over text and returns findings
// formatted as "LABEL:value". A nil result means the text is clean.
func FindSensitiveData(text string) []string {
	var findings []string
	for _, d := range detectors {
		for _, match := range d.re.FindAllStringSubmatch(text, -1) {
			findings = append(findings, d.label+":"+match[d.group])
		}
	}
	return findings
}
