// Package integration provides end-to-end tests for the evidence file flow
// and the tamper-evident audit trail it produces.
package integration

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/guardianlk/guardian/internal/audit/domain"
	auditRepository "github.com/guardianlk/guardian/internal/audit/repository"
	auditService "github.com/guardianlk/guardian/internal/audit/service"
	auditUseCase "github.com/guardianlk/guardian/internal/audit/usecase"
	filesHTTP "github.com/guardianlk/guardian/internal/files/http"
	filesService "github.com/guardianlk/guardian/internal/files/service"
	internalHTTP "github.com/guardianlk/guardian/internal/http"
	"github.com/guardianlk/guardian/internal/httputil"
)

// jpegMagic is the smallest prefix the storage sniffer accepts as image/jpeg.
var jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01}

type filesFlowContext struct {
	server       *httptest.Server
	auditLogPath string
	signer       *auditService.Signer
}

func newFilesFlowContext(t *testing.T) *filesFlowContext {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dataKey := bytes.Repeat([]byte("k"), 32)

	storage, err := filesService.NewStorage(t.TempDir())
	require.NoError(t, err)

	tokens := filesService.NewDownloadTokenService("integration-secret", 10*time.Minute)

	auditLogPath := t.TempDir() + "/audit.log"
	auditRepo, err := auditRepository.NewFileRepository(auditLogPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = auditRepo.Close() })

	signer, err := auditService.NewSigner(dataKey)
	require.NoError(t, err)

	decoder := auditUseCase.NewJWTSubjectDecoder("access-secret")
	recorder := auditUseCase.NewRecorder(auditRepo, signer, decoder, logger, false)

	errorWriter := httputil.NewErrorWriter(logger, nil, false)
	fileHandler := filesHTTP.NewFileHandler(storage, tokens, recorder, errorWriter)

	router := internalHTTP.SetupRouter(internalHTTP.RouterConfig{
		Logger:      logger,
		FileHandler: fileHandler,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &filesFlowContext{
		server:       server,
		auditLogPath: auditLogPath,
		signer:       signer,
	}
}

func (c *filesFlowContext) upload(t *testing.T, content []byte) map[string]any {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="evidence.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := http.Post(c.server.URL+"/api/v1/files/upload", writer.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func (c *filesFlowContext) auditRecords(t *testing.T) []auditDomain.Record {
	t.Helper()

	file, err := os.Open(c.auditLogPath)
	require.NoError(t, err)
	defer file.Close()

	var records []auditDomain.Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec auditDomain.Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestFilesFlow_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := newFilesFlowContext(t)
	content := append(jpegMagic, bytes.Repeat([]byte{0x01}, 64)...)

	// Upload
	uploaded := ctx.upload(t, content)
	fileID, ok := uploaded["id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, fileID)
	assert.Equal(t, ".jpg", uploaded["ext"])

	// Sign a download URL
	resp, err := http.Post(ctx.server.URL+"/api/v1/files/"+fileID+"/sign", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var signed struct {
		URL          string `json:"url"`
		ExpiresInMin int    `json:"expires_in_min"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&signed))
	assert.Equal(t, 10, signed.ExpiresInMin)

	parsed, err := url.Parse(signed.URL)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	require.NotEmpty(t, token)

	// Download with the signed token
	downloadResp, err := http.Get(ctx.server.URL + "/api/v1/public/files/download?token=" + url.QueryEscape(token))
	require.NoError(t, err)
	defer downloadResp.Body.Close()
	require.Equal(t, http.StatusOK, downloadResp.StatusCode)

	downloaded, err := io.ReadAll(downloadResp.Body)
	require.NoError(t, err)
	assert.Equal(t, content, downloaded)
	assert.Contains(t, downloadResp.Header.Get("Content-Disposition"), fileID+".jpg")

	// Download without a token is rejected and a forged token is denied
	noToken, err := http.Get(ctx.server.URL + "/api/v1/public/files/download")
	require.NoError(t, err)
	noToken.Body.Close()
	assert.Equal(t, http.StatusBadRequest, noToken.StatusCode)

	forged, err := http.Get(ctx.server.URL + "/api/v1/public/files/download?token=forged")
	require.NoError(t, err)
	forged.Body.Close()
	assert.Equal(t, http.StatusForbidden, forged.StatusCode)

	// Every recorded action carries a valid signature
	records := ctx.auditRecords(t)
	actions := make([]string, 0, len(records))
	for i := range records {
		actions = append(actions, records[i].Action)
		assert.NoError(t, ctx.signer.Verify(&records[i]), "record %d failed verification", i)
	}
	assert.Equal(t, []string{"file.upload", "file.sign_url", "file.download", "file.download_denied"}, actions)

	// Tampering with a stored record must break its signature
	tampered := records[0]
	tampered.Action = "file.delete"
	assert.Error(t, ctx.signer.Verify(&tampered))
}

func TestFilesFlow_ExpiredToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := newFilesFlowContext(t)

	content := append(jpegMagic, bytes.Repeat([]byte{0x02}, 32)...)
	uploaded := ctx.upload(t, content)
	fileID := uploaded["id"].(string)

	expired := filesService.NewDownloadTokenService("integration-secret", -time.Minute)
	token, err := expired.Issue(fileID, "officer-9")
	require.NoError(t, err)

	resp, err := http.Get(ctx.server.URL + "/api/v1/public/files/download?token=" + url.QueryEscape(token))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	records := ctx.auditRecords(t)
	last := records[len(records)-1]
	assert.Equal(t, "file.download_denied", last.Action)
	require.NotNil(t, last.Metadata)
	assert.Equal(t, "invalid_or_expired_token", last.Metadata["reason"])
}
