package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
)

// maxBodyBytes 限制请求体大小
const maxBodyBytes = 1 << 16

// ErrorBody 是错误响应的统一格式，可附带当前会话快照
type ErrorBody struct {
	Error    string `json:"error"`
	Snapshot any    `json:"snapshot,omitempty"`
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] failed to encode response: %v", err)
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorBody{Error: message})
}

// RespondErrorWithSnapshot 发送错误响应并带上会话状态，客户端无需再次拉取
func RespondErrorWithSnapshot(w http.ResponseWriter, status int, message string, snapshot any) {
	RespondJSON(w, status, ErrorBody{Error: message, Snapshot: snapshot})
}

// DecodeJSON 解析可选的请求体；空请求体不是错误
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
