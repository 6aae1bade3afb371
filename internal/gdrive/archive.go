package gdrive

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Archiver mirrors the interview database into a Drive folder, one file per
// calendar day, so completed transcripts survive the host.
type Archiver struct {
	service  *drive.Service
	folderID string
	fileIDs  map[string]string
	mu       sync.Mutex
}

func NewArchiver(ctx context.Context, credPath, folderID string) (*Archiver, error) {
	creds, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	config, err := google.CredentialsFromJSONWithTypeAndParams(ctx, creds, google.ServiceAccount, google.CredentialsParams{Scopes: []string{drive.DriveFileScope}})
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	svc, err := drive.NewService(ctx, option.WithCredentials(config))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return newArchiver(svc, folderID), nil
}

func newArchiver(svc *drive.Service, folderID string) *Archiver {
	return &Archiver{
		service:  svc,
		folderID: folderID,
		fileIDs:  make(map[string]string),
	}
}

// Archive uploads the database file for the given date, updating the day's
// Drive file in place on subsequent calls. An empty database file is skipped
// rather than overwriting a previous good upload.
func (a *Archiver) Archive(ctx context.Context, localPath, date string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("archive %s: database file is empty", localPath)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	if fileID, ok := a.fileIDs[date]; ok {
		_, err = a.service.Files.Update(fileID, &drive.File{}).Media(f).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("drive update: %w", err)
		}
		return nil
	}

	doc, err := a.service.Files.Create(&drive.File{
		Name:     fmt.Sprintf("interviewd-%s.db", date),
		MimeType: "application/octet-stream",
		Parents:  []string{a.folderID},
	}).Media(f).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("drive create: %w", err)
	}

	a.fileIDs[date] = doc.Id
	return nil
}
