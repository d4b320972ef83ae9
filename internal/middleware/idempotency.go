package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/zestpay/gateway/internal/auth"
	"github.com/zestpay/gateway/internal/handler"
	"github.com/zestpay/gateway/internal/logging"
	"github.com/zestpay/gateway/internal/repository"
)

type idempotencyStore interface {
	Reserve(ctx context.Context, merchantID uuid.UUID, requestHash string) (bool, *repository.IdempotencyRecord, error)
	Complete(ctx context.Context, merchantID uuid.UUID, requestHash string, statusCode int, body []byte) error
	Release(ctx context.Context, merchantID uuid.UUID, requestHash string) error
}

// Idempotency deduplicates mutating requests by (merchant, canonical
// request-body hash). The guard is opt-in: it engages when the client
// sends an Idempotency-Key header. Deduplication is keyed by content,
// not by the header value, so the same body retried under any key
// collapses to one execution.
//
// The slot is reserved before the handler runs; of two concurrent
// identical requests exactly one executes, the other gets 409 until
// the stored response is available and replays it verbatim after.
func Idempotency(store idempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if r.Header.Get("Idempotency-Key") == "" {
				next.ServeHTTP(w, r)
				return
			}

			merchant, ok := auth.MerchantFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrAuthentication, nil)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash, err := requestHash(r.Method, r.URL.Path, body)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}

			log := logging.FromContext(r.Context())

			reserved, cached, err := store.Reserve(r.Context(), merchant.ID, reqHash)
			if err != nil {
				log.Error("idempotency reservation failed", "error", err)
				handler.RespondAppError(w, handler.ErrInternal, nil)
				return
			}

			if !reserved {
				if cached == nil || cached.ResponseStatus == nil {
					handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotent-Replayed", "true")
				w.WriteHeader(*cached.ResponseStatus)
				if _, err := w.Write(cached.ResponseBody); err != nil {
					log.Error("failed to write idempotent replay", "error", err)
				}
				return
			}

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			// Server errors are transient; release the slot so a
			// retry re-executes instead of replaying a 5xx forever.
			if rec.statusCode >= http.StatusInternalServerError {
				if err := store.Release(r.Context(), merchant.ID, reqHash); err != nil {
					log.Error("idempotency release failed", "error", err)
				}
				return
			}

			if err := store.Complete(r.Context(), merchant.ID, reqHash, rec.statusCode, rec.body.Bytes()); err != nil {
				// The side effect already happened; a retry without a
				// stored response re-executes. At-most-once effect,
				// at-least-once storage attempt.
				log.Error("idempotency record store failed", "error", err)
			}
		})
	}
}

// requestHash digests method, path, and the canonicalized JSON body.
// Canonicalization (decode, re-encode with sorted keys) makes key
// order and whitespace irrelevant.
func requestHash(method, path string, body []byte) (string, error) {
	canonical := body
	if len(body) > 0 {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err != nil {
			return "", fmt.Errorf("requestHash: %w", err)
		}
		reencoded, err := json.Marshal(decoded)
		if err != nil {
			return "", fmt.Errorf("requestHash: %w", err)
		}
		canonical = reencoded
	}

	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(canonical)
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
