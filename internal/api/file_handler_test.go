package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"fileshare/internal/api"
	"fileshare/internal/domain"
	"fileshare/internal/repository"
	"fileshare/internal/service"
	"fileshare/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- in-memory backends ---

type memFileRepo struct {
	files []domain.File
}

func (m *memFileRepo) Create(ctx context.Context, file *domain.File) (primitive.ObjectID, error) {
	file.ID = primitive.NewObjectID()
	m.files = append(m.files, *file)
	return file.ID, nil
}

func (m *memFileRepo) GetByFilename(ctx context.Context, filename string) (*domain.File, error) {
	for i := range m.files {
		if m.files[i].Filename == filename {
			f := m.files[i]
			return &f, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memFileRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.File, error) {
	for i := range m.files {
		if m.files[i].ID == id {
			f := m.files[i]
			return &f, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memFileRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.File, error) {
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	result := []domain.File{}
	for _, f := range m.files {
		if want[f.ID] {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UploadDate.After(result[j].UploadDate) })
	return result, nil
}

func (m *memFileRepo) ListRecent(ctx context.Context, limit int64) ([]domain.File, error) {
	result := append([]domain.File{}, m.files...)
	sort.Slice(result, func(i, j int) bool { return result[i].UploadDate.After(result[j].UploadDate) })
	if int64(len(result)) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *memFileRepo) ListAll(ctx context.Context) ([]domain.File, error) {
	return append([]domain.File{}, m.files...), nil
}

func (m *memFileRepo) IncrementDownloadCount(ctx context.Context, filename string) (*domain.File, error) {
	for i := range m.files {
		if m.files[i].Filename == filename {
			m.files[i].DownloadCount++
			f := m.files[i]
			return &f, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memHistoryRepo struct {
	histories map[string]*domain.RecentHistory
}

func newMemHistoryRepo() *memHistoryRepo {
	return &memHistoryRepo{histories: map[string]*domain.RecentHistory{}}
}

func (m *memHistoryRepo) PushFront(ctx context.Context, deviceID string, fileID primitive.ObjectID) error {
	h, ok := m.histories[deviceID]
	if !ok {
		h = &domain.RecentHistory{ID: primitive.NewObjectID(), DeviceID: deviceID}
		m.histories[deviceID] = h
	}
	ids := []primitive.ObjectID{fileID}
	for _, id := range h.FileIDs {
		if id != fileID {
			ids = append(ids, id)
		}
	}
	if len(ids) > domain.MaxRecentFiles {
		ids = ids[:domain.MaxRecentFiles]
	}
	h.FileIDs = ids
	h.LastAccessed = time.Now().UTC()
	return nil
}

func (m *memHistoryRepo) GetByDeviceID(ctx context.Context, deviceID string) (*domain.RecentHistory, error) {
	h, ok := m.histories[deviceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *h
	return &copied, nil
}

func (m *memHistoryRepo) Delete(ctx context.Context, deviceID string) error {
	delete(m.histories, deviceID)
	return nil
}

func (m *memHistoryRepo) ListAll(ctx context.Context) ([]domain.RecentHistory, error) {
	result := []domain.RecentHistory{}
	for _, h := range m.histories {
		result = append(result, *h)
	}
	return result, nil
}

type memBlobStore struct {
	blobs  map[string][]byte
	nextID int
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: map[string][]byte{}}
}

func (m *memBlobStore) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.nextID++
	id := "blob-" + strconv.Itoa(m.nextID)
	m.blobs[id] = data
	return id, nil
}

func (m *memBlobStore) Download(ctx context.Context, blobID string) (io.ReadCloser, error) {
	data, ok := m.blobs[blobID]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobStore) Delete(ctx context.Context, blobID string) error {
	delete(m.blobs, blobID)
	return nil
}

// --- test server setup ---

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fileRepo := &memFileRepo{}
	historyRepo := newMemHistoryRepo()
	blobStore := newMemBlobStore()

	fileService := service.NewFileService(fileRepo, historyRepo, blobStore, "http://localhost:8080")
	historyService := service.NewHistoryService(historyRepo, fileRepo)

	router := gin.New()
	api.SetupRoutes(router, []string{"*"}, fileService, historyService)
	return router
}

// multipartBody builds a multipart form with one "file" field carrying an
// explicit part content type.
func multipartBody(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func doUpload(t *testing.T, router *gin.Engine, filename, contentType, deviceID string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, formContentType := multipartBody(t, filename, contentType, content)
	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", body)
	req.Header.Set("Content-Type", formContentType)
	if deviceID != "" {
		req.Header.Set("device-id", deviceID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// --- tests ---

func TestUploadEndpoint(t *testing.T) {
	router := newTestRouter(t)
	content := bytes.Repeat([]byte("x"), 2048)

	rec := doUpload(t, router, "report.pdf", "application/pdf", "dev1", content)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		File   api.FileResponse `json:"file"`
		QRCode string           `json:"qrCode"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "report.pdf", resp.File.OriginalName)
	assert.Equal(t, int64(2048), resp.File.Size)
	assert.True(t, strings.HasPrefix(resp.QRCode, "data:image/"), "qrCode %q", resp.QRCode[:16])
	assert.NotEmpty(t, resp.File.Filename)
}

func TestUploadEndpoint_NoFile(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No file uploaded")
}

func TestUploadEndpoint_DisallowedType(t *testing.T) {
	router := newTestRouter(t)

	rec := doUpload(t, router, "tool.exe", "application/octet-stream", "", []byte("MZ"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadEndpoint_RoundTrip(t *testing.T) {
	router := newTestRouter(t)
	content := []byte("the payload")

	rec := doUpload(t, router, "notes.txt", "text/plain", "", content)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		File api.FileResponse `json:"file"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	dl := doJSON(t, router, http.MethodGet, "/api/files/download/"+resp.File.Filename, nil)
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, content, dl.Body.Bytes())
	assert.Equal(t, "text/plain", dl.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="notes.txt"`, dl.Header().Get("Content-Disposition"))

	// Download count is visible through the info endpoint.
	info := doJSON(t, router, http.MethodGet, "/api/files/info/"+resp.File.Filename, nil)
	require.Equal(t, http.StatusOK, info.Code)
	var infoResp api.FileResponse
	require.NoError(t, json.Unmarshal(info.Body.Bytes(), &infoResp))
	assert.Equal(t, int64(1), infoResp.DownloadCount)
}

func TestDownloadEndpoint_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/files/download/ghost.png", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "File not found", resp["message"])
}

func TestInfoEndpoint_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/files/info/ghost.png", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeviceRecent_ElevenUploadsKeepTen(t *testing.T) {
	router := newTestRouter(t)

	for i := 0; i < 11; i++ {
		name := fmt.Sprintf("file-%d.txt", i)
		rec := doUpload(t, router, name, "text/plain", "dev2", []byte("c"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := doJSON(t, router, http.MethodGet, "/api/files/recent/dev2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var files []api.FileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	require.Len(t, files, 10)

	// Most recent first; the very first upload fell off.
	assert.Equal(t, "file-10.txt", files[0].OriginalName)
	assert.Equal(t, "file-1.txt", files[9].OriginalName)
	for _, f := range files {
		assert.NotEqual(t, "file-0.txt", f.OriginalName)
	}
}

func TestDeviceRecent_UnknownDeviceIsEmptyArray(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/files/recent/nobody", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestClearRecentHistory(t *testing.T) {
	router := newTestRouter(t)

	rec := doUpload(t, router, "a.txt", "text/plain", "dev1", []byte("a"))
	require.Equal(t, http.StatusCreated, rec.Code)

	cleared := doJSON(t, router, http.MethodPost, "/api/files/clear-recent-history", gin.H{"deviceId": "dev1"})
	require.Equal(t, http.StatusOK, cleared.Code)
	assert.Contains(t, cleared.Body.String(), "Recent history cleared successfully")

	after := doJSON(t, router, http.MethodGet, "/api/files/recent/dev1", nil)
	require.Equal(t, http.StatusOK, after.Code)
	assert.Equal(t, "[]", strings.TrimSpace(after.Body.String()))
}

func TestAddToRecent_IdempotentViaEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doUpload(t, router, "a.txt", "text/plain", "", []byte("a"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		File api.FileResponse `json:"file"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	for i := 0; i < 2; i++ {
		add := doJSON(t, router, http.MethodPost, "/api/files/add-to-recent/dev9", gin.H{"fileId": resp.File.ID})
		require.Equal(t, http.StatusOK, add.Code)
	}

	recent := doJSON(t, router, http.MethodGet, "/api/files/recent/dev9", nil)
	require.Equal(t, http.StatusOK, recent.Code)
	var files []api.FileResponse
	require.NoError(t, json.Unmarshal(recent.Body.Bytes(), &files))
	assert.Len(t, files, 1)
}

func TestAddToRecent_BadFileID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/files/add-to-recent/dev1", gin.H{"fileId": "not-a-hex"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeviceFiles_BadBody(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/files/device-files", gin.H{"fileIds": "not-an-array"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "fileIds must be an array")
}

func TestGlobalRecent(t *testing.T) {
	router := newTestRouter(t)

	rec := doUpload(t, router, "a.txt", "text/plain", "", []byte("a"))
	require.Equal(t, http.StatusCreated, rec.Code)

	recent := doJSON(t, router, http.MethodGet, "/api/files/recent", nil)
	require.Equal(t, http.StatusOK, recent.Code)
	var files []api.FileResponse
	require.NoError(t, json.Unmarshal(recent.Body.Bytes(), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "a.txt", files[0].OriginalName)
}

func TestUploadPage(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/files/upload-page?deviceId=dev1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `id="uploadForm"`)
}

func TestDebugEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doUpload(t, router, "a.txt", "text/plain", "dev1", []byte("a"))
	require.Equal(t, http.StatusCreated, rec.Code)

	devs := doJSON(t, router, http.MethodGet, "/api/files/debug/device-ids", nil)
	require.Equal(t, http.StatusOK, devs.Code)
	var devResp struct {
		TotalHistories int `json:"totalHistories"`
		Histories      []struct {
			DeviceID  string `json:"deviceId"`
			FileCount int    `json:"fileCount"`
		} `json:"histories"`
	}
	require.NoError(t, json.Unmarshal(devs.Body.Bytes(), &devResp))
	assert.Equal(t, 1, devResp.TotalHistories)
	require.Len(t, devResp.Histories, 1)
	assert.Equal(t, "dev1", devResp.Histories[0].DeviceID)
	assert.Equal(t, 1, devResp.Histories[0].FileCount)

	all := doJSON(t, router, http.MethodGet, "/api/files/debug/all-files", nil)
	require.Equal(t, http.StatusOK, all.Code)
	var allResp struct {
		TotalFiles int `json:"totalFiles"`
	}
	require.NoError(t, json.Unmarshal(all.Body.Bytes(), &allResp))
	assert.Equal(t, 1, allResp.TotalFiles)
}
