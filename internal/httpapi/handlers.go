package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/beatbrawl/beatbrawl-backend/internal/hub"
	"github.com/beatbrawl/beatbrawl-backend/internal/room"
)

// Room codes avoid 0/O/1/I so they survive being read aloud.
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func GenerateCode() (string, error) {
	code := make([]byte, 6)
	max := big.NewInt(int64(len(codeCharset)))
	for i := range code {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}

// CreateRoom allocates an unused room code. The room itself is created
// lazily when the first player connects to it.
func CreateRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			reply := make(chan *room.Room, 1)
			h.Inbox() <- hub.GetRoom{Code: c, Reply: reply}
			if <-reply == nil {
				code = c
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
