package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewArticleID mints a unique article id. Millisecond timestamp plus random
// suffix keeps ids sortable by creation while avoiding collisions.
func NewArticleID() string {
	buf := make([]byte, 4)
	rand.Read(buf)
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
