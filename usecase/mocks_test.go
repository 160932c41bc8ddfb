package usecase

import (
	"context"
	"sync"
	"time"

	domainState "github.com/sharebite/sharebite-bot/domains/convstate"
	domainMedia "github.com/sharebite/sharebite-bot/domains/media"
	domainMessaging "github.com/sharebite/sharebite-bot/domains/messaging"
	domainRateLimit "github.com/sharebite/sharebite-bot/domains/ratelimit"
	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

// --- rate limit repository -------------------------------------------------

type fakeRateRepo struct {
	records map[string]*domainRateLimit.RateLimitRecord
	getErr  error
	saveErr error
}

func newFakeRateRepo() *fakeRateRepo {
	return &fakeRateRepo{records: map[string]*domainRateLimit.RateLimitRecord{}}
}

func (r *fakeRateRepo) Get(ctx context.Context, userID string) (*domainRateLimit.RateLimitRecord, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	rec, ok := r.records[userID]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (r *fakeRateRepo) Save(ctx context.Context, record *domainRateLimit.RateLimitRecord) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	clone := *record
	r.records[record.UserID] = &clone
	return nil
}

func (r *fakeRateRepo) DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for id, rec := range r.records {
		if rec.UpdatedAt.Before(cutoff) {
			delete(r.records, id)
			removed++
		}
	}
	return removed, nil
}

// --- rate limit fast-path counter -------------------------------------------

type fakeCounter struct {
	count   int
	resetAt time.Time
	err     error
}

func (c *fakeCounter) Incr(ctx context.Context, userID string) (int, time.Time, error) {
	if c.err != nil {
		return 0, time.Time{}, c.err
	}
	c.count++
	return c.count, c.resetAt, nil
}

// --- conversation state repository -----------------------------------------

type fakeStateRepo struct {
	records   map[string]*domainState.StateRecord
	getErr    error
	upsertErr error
	deleteErr error
	getCalls  int
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{records: map[string]*domainState.StateRecord{}}
}

func (r *fakeStateRepo) Get(ctx context.Context, userID string) (*domainState.StateRecord, error) {
	r.getCalls++
	if r.getErr != nil {
		return nil, r.getErr
	}
	rec, ok := r.records[userID]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (r *fakeStateRepo) Upsert(ctx context.Context, record *domainState.StateRecord) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	clone := *record
	r.records[record.UserID] = &clone
	return nil
}

func (r *fakeStateRepo) Delete(ctx context.Context, userID string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.records, userID)
	return nil
}

// --- messaging transport ----------------------------------------------------

type sentMessage struct {
	chatID int64
	text   string
}

type sentPhoto struct {
	chatID  int64
	photo   string
	caption string
}

type fakeTransport struct {
	mu        sync.Mutex
	messages  []sentMessage
	photos    []sentPhoto
	locations []domainMessaging.Location
	callbacks []string
	webhooks  []string
	failWith  error
}

func (t *fakeTransport) SendMessage(ctx context.Context, chatID int64, text string, opts *domainMessaging.SendOptions) error {
	if t.failWith != nil {
		return t.failWith
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, sentMessage{chatID: chatID, text: text})
	return nil
}

func (t *fakeTransport) SendPhoto(ctx context.Context, chatID int64, photo, caption string, opts *domainMessaging.SendOptions) error {
	if t.failWith != nil {
		return t.failWith
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.photos = append(t.photos, sentPhoto{chatID: chatID, photo: photo, caption: caption})
	return nil
}

func (t *fakeTransport) SendLocation(ctx context.Context, chatID int64, latitude, longitude float64) error {
	if t.failWith != nil {
		return t.failWith
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locations = append(t.locations, domainMessaging.Location{Latitude: latitude, Longitude: longitude})
	return nil
}

func (t *fakeTransport) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	if t.failWith != nil {
		return t.failWith
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callbacks = append(t.callbacks, callbackQueryID)
	return nil
}

func (t *fakeTransport) SetWebhook(ctx context.Context, url, secretToken string) error {
	if t.failWith != nil {
		return t.failWith
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.webhooks = append(t.webhooks, url)
	return nil
}

func (t *fakeTransport) lastMessage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.messages) == 0 {
		return ""
	}
	return t.messages[len(t.messages)-1].text
}

// --- file API ---------------------------------------------------------------

type fakeFileAPI struct {
	info    *domainMedia.FileInfo
	infoErr error

	data          []byte
	downloadErrs  []error
	getFileCalls  int
	downloadCalls int
}

func (f *fakeFileAPI) GetFile(ctx context.Context, fileID string) (*domainMedia.FileInfo, error) {
	f.getFileCalls++
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	clone := *f.info
	return &clone, nil
}

func (f *fakeFileAPI) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	f.downloadCalls++
	if len(f.downloadErrs) > 0 {
		err := f.downloadErrs[0]
		f.downloadErrs = f.downloadErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.data, nil
}

// --- object storage ---------------------------------------------------------

var fakeStorageErr = pkgError.StorageError("storage write failed")

type fakeObjectStore struct {
	objects     map[string][]byte
	failUploads int
	uploadCalls int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (s *fakeObjectStore) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	s.uploadCalls++
	if s.failUploads > 0 {
		s.failUploads--
		return fakeStorageErr
	}
	s.objects[name] = data
	return nil
}

func (s *fakeObjectStore) PublicURL(name string) string {
	return "https://cdn.test/media/" + name
}
