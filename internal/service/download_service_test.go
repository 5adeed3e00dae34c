package service

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/storage"
)

func newDownloadServiceForTest(t *testing.T) (*DownloadService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewDownloadService(store, signer, DownloadConfig{URLPrefix: "/api/console/", TTL: time.Hour}, NewMetricsService(), zap.NewNop())
	return svc, store
}

func stagedPath(t *testing.T, token string) string {
	t.Helper()
	parsed, err := storage.NewSignedURLSigner("secret", time.Hour).Parse(token, true)
	require.NoError(t, err)
	return parsed.Path
}

func TestDownloadServiceStageAndDeliver(t *testing.T) {
	svc, store := newDownloadServiceForTest(t)

	staged, err := svc.Stage(&models.Blob{Data: []byte("a,b\n1,2\n"), ContentType: "text/csv", Filename: "students_report.csv"})
	require.NoError(t, err)
	assert.Equal(t, "students_report.csv", staged.Filename)
	assert.Equal(t, 8, staged.Size)
	assert.Equal(t, "/api/console/downloads/"+staged.Token, staged.URL)

	var body []byte
	var gotName, gotType string
	err = svc.Deliver(staged.Token, func(file *os.File, filename, contentType string) error {
		gotName, gotType = filename, contentType
		body, err = io.ReadAll(file)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(body))
	assert.Equal(t, "students_report.csv", gotName)
	assert.Equal(t, "text/csv", gotType)

	_, statErr := os.Stat(store.Path(stagedPath(t, staged.Token)))
	assert.True(t, os.IsNotExist(statErr), "delivered file must be released")

	err = svc.Deliver(staged.Token, func(*os.File, string, string) error { return nil })
	assert.True(t, errors.Is(err, appErrors.ErrNotFound), "a download is delivered once")
}

func TestDownloadServiceReleasesWhenWriterFails(t *testing.T) {
	svc, store := newDownloadServiceForTest(t)

	staged, err := svc.Stage(&models.Blob{Data: []byte("%PDF"), Filename: "students_report.pdf"})
	require.NoError(t, err)

	writeErr := errors.New("client went away")
	err = svc.Deliver(staged.Token, func(*os.File, string, string) error { return writeErr })
	require.ErrorIs(t, err, writeErr)

	_, statErr := os.Stat(store.Path(stagedPath(t, staged.Token)))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloadServiceRejectsForgedToken(t *testing.T) {
	svc, _ := newDownloadServiceForTest(t)

	called := false
	err := svc.Deliver("handle.123.cGF0aA.deadbeef", func(*os.File, string, string) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, appErrors.ErrNotFound.Status, appErrors.FromError(err).Status)
}

func TestDownloadServiceStageSanitisesFilename(t *testing.T) {
	svc, _ := newDownloadServiceForTest(t)

	staged, err := svc.Stage(&models.Blob{Data: []byte("x"), Filename: "../../etc/students_report.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, "students_report.xlsx", staged.Filename)
}

func TestDownloadServiceCleanup(t *testing.T) {
	svc, store := newDownloadServiceForTest(t)

	staged, err := svc.Stage(&models.Blob{Data: []byte("x"), Filename: "students_report.csv"})
	require.NoError(t, err)
	path := store.Path(stagedPath(t, staged.Token))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, past, past))

	deleted, err := svc.Cleanup()
	require.NoError(t, err)
	assert.Len(t, deleted, 1)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloadServiceDeliversOnceUnderConcurrency(t *testing.T) {
	svc, _ := newDownloadServiceForTest(t)

	staged, err := svc.Stage(&models.Blob{Data: []byte("id\n1\n"), Filename: "students_report.csv"})
	require.NoError(t, err)

	entered := make(chan struct{})
	gate := make(chan struct{})
	var delivered int32
	write := func(*os.File, string, string) error {
		atomic.AddInt32(&delivered, 1)
		close(entered)
		<-gate
		return nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, svc.Deliver(staged.Token, write))
	}()
	<-entered

	err = svc.Deliver(staged.Token, func(*os.File, string, string) error {
		atomic.AddInt32(&delivered, 1)
		return nil
	})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	close(gate)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&delivered))

	err = svc.Deliver(staged.Token, func(*os.File, string, string) error { return nil })
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
