package util

// MaskSecret hides a secret value, keeping a short prefix so operators can
// still tell values apart in a report.
func MaskSecret(value string) string {
	if len(value) < 5 {
		return "****"
	}
	return value[:2] + "****"
}
