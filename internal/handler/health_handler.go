package handler

import (
	"encoding/json"
	"net/http"
)

// healthResponse はヘルスチェックのレスポンス。
type healthResponse struct {
	OK bool `json:"ok"`
}

// Health はプロセスの生存確認に応答する。DBには触れない。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{OK: true})
}
