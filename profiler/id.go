package profiler

import (
	"strings"

	"github.com/google/uuid"
)

func newRandID() string {
	randUUID, _ := uuid.NewRandom()
	return strings.Replace(randUUID.String(), "-", "", -1)
}
