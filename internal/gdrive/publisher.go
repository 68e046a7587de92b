package gdrive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const googleDocMIME = "application/vnd.google-apps.document"

// Publisher uploads compiled minutes to a Drive folder, converting them to
// Google Docs. Republishing the same local file updates the existing doc.
type Publisher struct {
	service  *drive.Service
	folderID string
	fileIDs  map[string]string
	mu       sync.Mutex
}

func NewPublisher(ctx context.Context, credPath, folderID string) (*Publisher, error) {
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

	return NewPublisherWithService(svc, folderID), nil
}

func NewPublisherWithService(svc *drive.Service, folderID string) *Publisher {
	return &Publisher{service: svc, folderID: folderID, fileIDs: make(map[string]string)}
}

// Publish uploads the file at localPath and returns the Drive file id.
func (p *Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	if fileID, ok := p.fileIDs[localPath]; ok {
		if _, err := p.service.Files.Update(fileID, &drive.File{}).Media(f).Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("drive update: %w", err)
		}
		return fileID, nil
	}

	file := &drive.File{
		Name:     DocumentName(localPath),
		MimeType: googleDocMIME,
	}
	if p.folderID != "" {
		file.Parents = []string{p.folderID}
	}

	doc, err := p.service.Files.Create(file).Media(f).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive create: %w", err)
	}

	p.fileIDs[localPath] = doc.Id
	return doc.Id, nil
}

// DocumentName is the Drive title for a local artifact.
func DocumentName(localPath string) string {
	base := filepath.Base(localPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
