package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// MasterFileName is the reserved name of the single remote backup object.
const MasterFileName = "HSC_STUDY_MASTER_BACKUP.json"

// DriveClient wraps the Drive v3 API around exactly one named file. The
// bearer token comes from the dashboard's Google consent flow and is passed
// per call; this client never manages the auth flow itself.
type DriveClient struct {
	endpoint string // override for tests; "" means the real API
}

func NewDriveClient() *DriveClient {
	return &DriveClient{}
}

// NewDriveClientWithEndpoint points every call at a custom base URL.
func NewDriveClientWithEndpoint(endpoint string) *DriveClient {
	return &DriveClient{endpoint: endpoint}
}

func (c *DriveClient) service(ctx context.Context, token string) (*drive.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive client: %w", err)
	}
	return srv, nil
}

// FindMasterFile returns the id of the canonical backup file, or "" when it
// does not exist. Lookup errors are logged and reported as "not found": on a
// flaky startup it is safer to create a fresh backup than to fail the whole
// reconciliation.
func (c *DriveClient) FindMasterFile(ctx context.Context, token string) string {
	srv, err := c.service(ctx, token)
	if err != nil {
		log.Printf("drive: find master file: %v", err)
		return ""
	}

	query := fmt.Sprintf("name='%s' and trashed=false", MasterFileName)
	list, err := srv.Files.List().Q(query).Fields("files(id)").Do()
	if err != nil {
		log.Printf("drive: find master file: %v", err)
		return ""
	}
	if len(list.Files) == 0 {
		return ""
	}
	return list.Files[0].Id
}

// Upload creates the remote file when fileID is empty, otherwise overwrites
// the existing object's content in place. Returns the object id.
func (c *DriveClient) Upload(ctx context.Context, token, content, fileID string) (string, error) {
	srv, err := c.service(ctx, token)
	if err != nil {
		return "", err
	}

	body := strings.NewReader(content)
	if fileID == "" {
		meta := &drive.File{Name: MasterFileName, MimeType: "application/json"}
		created, err := srv.Files.Create(meta).Media(body).Fields("id").Do()
		if err != nil {
			return "", fmt.Errorf("failed to create master file: %w", err)
		}
		return created.Id, nil
	}

	updated, err := srv.Files.Update(fileID, &drive.File{}).Media(body).Fields("id").Do()
	if err != nil {
		return "", fmt.Errorf("failed to update master file: %w", err)
	}
	if updated.Id == "" {
		return fileID, nil
	}
	return updated.Id, nil
}

// Download fetches the raw content of the given object id.
func (c *DriveClient) Download(ctx context.Context, token, fileID string) (string, error) {
	srv, err := c.service(ctx, token)
	if err != nil {
		return "", err
	}

	resp, err := srv.Files.Get(fileID).Download()
	if err != nil {
		return "", fmt.Errorf("failed to download master file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read master file body: %w", err)
	}
	return string(data), nil
}
