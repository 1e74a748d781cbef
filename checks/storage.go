package checks

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/pkg/errors"
	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"

	"motodealer-backend-tests/auth"
	"motodealer-backend-tests/fixture"
	"motodealer-backend-tests/report"
	sdk "motodealer-backend-tests/supabase"
)

// StorageFolder holds every object the storage check uploads
const StorageFolder = "test"

const storageContent = "MotoDealer storage probe"

// StorageCheck uploads, lists and removes a probe object in each bucket as the first fixture user
type StorageCheck struct{}

func (StorageCheck) Name() string { return "Storage" }

func (StorageCheck) Run(ctx context.Context, env *Env, log *report.Log) {
	log.Section("TESTING SUPABASE STORAGE")

	if len(env.Users) == 0 || len(env.Options.StorageBuckets) == 0 {
		log.Fail("Storage", "No fixture user or bucket configured", nil)
		return
	}
	user := env.Users[0]

	client, err := env.NewSDKClient()
	if err != nil {
		log.Fail("Storage Sign-In", fmt.Sprintf("Could not create client: %v", err), report.Details{"error": err.Error()})
		return
	}
	provider := auth.NewSupabaseAuth(client)
	if _, err := provider.SignIn(ctx, user.Email, user.Password); err != nil {
		log.Fail("Storage Sign-In", fmt.Sprintf("Login failed: %v", err), report.Details{"error": err.Error(), "email": user.Email})
		return
	}
	defer func() {
		if err := provider.SignOut(context.WithoutCancel(ctx)); err != nil {
			env.Logger.WithError(err).Warn("storage sign out failed")
		}
	}()

	// objects must be removed while the session is still valid
	scope := fixture.NewScope("storage", env.Logger)
	defer scope.Close(context.WithoutCancel(ctx))

	for _, bucket := range env.Options.StorageBuckets {
		objectPath := fmt.Sprintf("%s/%s-%s.txt", StorageFolder, env.RunID, bucket)
		probeBucket(ctx, log, client, scope, bucket, objectPath)
	}
}

func probeBucket(ctx context.Context, log *report.Log, client *sdk.Client, scope *fixture.Scope, bucket, objectPath string) {
	upload := "Storage UPLOAD - " + bucket
	cacheControl := "3600"
	contentType := "text/plain"
	upsert := false

	resp, err := sdk.Run(ctx, client, func(c *supabase.Client) (storage_go.FileUploadResponse, error) {
		return c.Storage.UploadFile(bucket, objectPath, strings.NewReader(storageContent), storage_go.FileOptions{
			CacheControl: &cacheControl,
			ContentType:  &contentType,
			Upsert:       &upsert,
		})
	})
	if err != nil {
		log.Fail(upload, fmt.Sprintf("Upload failed: %v", err), report.Details{"bucket": bucket, "path": objectPath, "error": err.Error()})
		return
	}

	key := "storage:" + bucket + "/" + objectPath
	scope.Acquire(key, func(ctx context.Context) error {
		_, err := sdk.Run(ctx, client, func(c *supabase.Client) ([]storage_go.FileUploadResponse, error) {
			return c.Storage.RemoveFile(bucket, []string{objectPath})
		})
		return err
	})
	log.Pass(upload, "Upload successful", report.Details{
		"bucket":     bucket,
		"path":       objectPath,
		"key":        resp.Key,
		"public_url": client.Storage.GetPublicUrl(bucket, objectPath).SignedURL,
	})

	list := "Storage LIST - " + bucket
	files, err := sdk.Run(ctx, client, func(c *supabase.Client) ([]storage_go.FileObject, error) {
		return c.Storage.ListFiles(bucket, StorageFolder, storage_go.FileSearchOptions{
			Limit:         100,
			SortByOptions: storage_go.SortBy{Column: "name", Order: "asc"},
		})
	})
	switch {
	case err != nil:
		log.Fail(list, fmt.Sprintf("List failed: %v", err), report.Details{"bucket": bucket, "error": err.Error()})
	case !containsObject(files, path.Base(objectPath)):
		log.Fail(list, "Uploaded file not found in listing", report.Details{"bucket": bucket, "files": len(files)})
	default:
		log.Pass(list, fmt.Sprintf("Found %d files in %s/ folder", len(files), StorageFolder), report.Details{"bucket": bucket, "files": len(files)})
	}

	remove := "Storage REMOVE - " + bucket
	removed, err := sdk.Run(ctx, client, func(c *supabase.Client) ([]storage_go.FileUploadResponse, error) {
		return c.Storage.RemoveFile(bucket, []string{objectPath})
	})
	if err == nil && len(removed) == 0 {
		err = errors.New("nothing was removed")
	}
	if err != nil {
		log.Fail(remove, fmt.Sprintf("Delete failed: %v", err), report.Details{"bucket": bucket, "path": objectPath, "error": err.Error()})
		return
	}
	scope.Forget(key)
	log.Pass(remove, "Test file deleted", report.Details{"bucket": bucket, "path": objectPath})
}

func containsObject(files []storage_go.FileObject, name string) bool {
	for _, f := range files {
		if f.Name == name {
			return true
		}
	}
	return false
}
