// Package answers persists checklist answers. (case_id, question_key) is the
// natural key; the surrogate id is kept stable across re-answers.
package answers
