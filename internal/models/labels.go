package models

import "strings"

// LabelFor maps a zero-based ordinal to a spreadsheet-style label:
// 0 -> A, 25 -> Z, 26 -> AA, 27 -> AB. Negative indexes yield "".
func LabelFor(index int) string {
	if index < 0 {
		return ""
	}
	var buf []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		buf = append(buf, byte('A'+(n-1)%26))
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// IndexForLabel is the inverse of LabelFor. It returns -1 for anything that is not a letter label.
func IndexForLabel(label string) int {
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		return -1
	}
	n := 0
	for _, r := range label {
		if r < 'A' || r > 'Z' {
			return -1
		}
		n = n*26 + int(r-'A'+1)
		if n > 1<<20 {
			return -1
		}
	}
	return n - 1
}

// AnswerKey builds the composite key questionId[-partId[-subpartId]].
func AnswerKey(questionID, partID, subpartID string) string {
	key := questionID
	if partID != "" {
		key += "-" + partID
		if subpartID != "" {
			key += "-" + subpartID
		}
	}
	return key
}
