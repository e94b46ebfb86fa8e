package worker

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// JobIDPrefix prefixes every import job id.
const JobIDPrefix = "imp"

// NewJobID returns a URL-safe job id such as "imp-V1StGXR8_Z5jdHi6B-myT".
func NewJobID() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return JobIDPrefix + "-" + id, nil
}
