package repository

import (
	"fmt"
	"strconv"
)

// user_tag_uid is NUMERIC(20). It is exchanged with Postgres as decimal text
// so uids above the int64 range survive the round trip.

func tagUIDArg(uid uint64) string {
	return strconv.FormatUint(uid, 10)
}

func parseTagUID(raw *string) (*uint64, error) {
	if raw == nil {
		return nil, nil
	}
	uid, err := strconv.ParseUint(*raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("scan user_tag_uid %q: %w", *raw, err)
	}
	return &uid, nil
}
