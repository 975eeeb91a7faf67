package store

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strconv"

	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
)

// cursor is the last row of a page: listings resume strictly after
// (Name, ID).
type cursor struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Hash string `json:"hash"`
}

func encodeCursor(c cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeCursor(tok string) (cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return cursor{}, zserrors.Wrap(zserrors.ErrContract, "cursor base64 decode", err)
	}
	var c cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return cursor{}, zserrors.Wrap(zserrors.ErrContract, "cursor json parse", err)
	}
	return c, nil
}

// filterHash binds a cursor to the filter it was issued for. Limit is
// excluded so the page size may change between pages.
func filterHash(opts ListOptions) string {
	h := sha256.New()
	h.Write([]byte(opts.NamePrefix))
	h.Write([]byte("\n"))
	h.Write([]byte(strconv.FormatBool(opts.ActiveOnly)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
