// workers/member_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"activity-hub/services"
	"activity-hub/utils"
)

// RemoteProfile matches the JSON the profile service returns per user.
type RemoteProfile struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Username   string    `json:"username"`
	Country    string    `json:"country"`
	Region     string    `json:"region"`
	Locality   string    `json:"locality"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GetProfileChangesResponse is the top-level structure of the profile service response.
type GetProfileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// ProfileStore is where mirrored profiles land. Implemented by services.MemberService.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, p services.MemberProfile) error
	LastProfileSync(ctx context.Context) (time.Time, error)
}

type MemberSyncWorker struct {
	store        ProfileStore
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client
}

func NewMemberSyncWorker(store ProfileStore, baseURL, endpointPath, serviceToken string, interval time.Duration) *MemberSyncWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &MemberSyncWorker{
		store:        store,
		interval:     interval,
		baseURL:      baseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.NewHTTPClient(30 * time.Second),
	}
}

func (w *MemberSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Member Sync Worker (profile-service → members)…")
	go w.run(ctx)
}

func (w *MemberSyncWorker) run(ctx context.Context) {
	// backfill from the newest profile we already hold, the epoch on an empty table
	if _, err := w.syncBatch(ctx, w.lastSyncTime(ctx)); err != nil {
		log.Printf("⚠️ Initial sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.syncBatch(ctx, w.lastSyncTime(ctx)); err != nil {
				log.Printf("❌ Sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Member Sync Worker stopped")
			return
		}
	}
}

func (w *MemberSyncWorker) lastSyncTime(ctx context.Context) time.Time {
	last, err := w.store.LastProfileSync(ctx)
	if err != nil || last.IsZero() {
		return time.Unix(0, 0)
	}
	return last
}

// syncBatch pulls profile changes since the given time and upserts them. Returns how many were stored.
func (w *MemberSyncWorker) syncBatch(ctx context.Context, since time.Time) (int, error) {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return 0, fmt.Errorf("invalid profile service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	log.Printf("[SYNC] ➡️  GET %s", finalURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request to profile service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("[SYNC] ❌ Profile service returned %d for %s: %s", resp.StatusCode, finalURL, body)
		return 0, fmt.Errorf("profile service non-200 response: %d: %s", resp.StatusCode, body)
	}

	var response GetProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("failed to decode profile service response: %w", err)
	}

	if len(response.Users) == 0 {
		log.Printf("[SYNC] ✅ No profile changes since %s", sinceStr)
		return 0, nil
	}

	var upsertCount, errorCount int
	for _, remote := range response.Users {
		err := w.store.UpsertProfile(ctx, services.MemberProfile{
			ExternalUserID: remote.ExternalID,
			Username:       remote.Username,
			Country:        remote.Country,
			Region:         remote.Region,
			Locality:       remote.Locality,
			UpdatedAt:      remote.UpdatedAt,
		})
		if err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert member (external_id=%q, username=%q): %v",
				remote.ExternalID, remote.Username, err)
			continue
		}
		upsertCount++
	}

	log.Printf("[SYNC] ✅ Synced %d profiles (%d upserted, %d errors)", len(response.Users), upsertCount, errorCount)
	return upsertCount, nil
}
