package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"depot/internal/server/database"
)

func newTestFiles() (*FileService, *fakeFileStore, *fakeBlobStore) {
	files := newFakeFileStore()
	blobs := newFakeBlobStore()
	return NewFileService(files, blobs), files, blobs
}

func mustCreate(t *testing.T, svc *FileService, userID string, in CreateFileInput) *database.File {
	t.Helper()
	file, err := svc.Create(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return file
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("validation order", func(t *testing.T) {
		svc, _, _ := newTestFiles()

		cases := []struct {
			name string
			in   CreateFileInput
			want error
		}{
			{"missing name", CreateFileInput{Type: "file", Data: []byte("x")}, ErrMissingName},
			{"invalid type", CreateFileInput{Name: "a", Type: "symlink", Data: []byte("x")}, ErrInvalidType},
			{"empty type", CreateFileInput{Name: "a", Data: []byte("x")}, ErrInvalidType},
			{"file without data", CreateFileInput{Name: "a", Type: "file"}, ErrMissingData},
			{"image without data", CreateFileInput{Name: "a", Type: "image"}, ErrMissingData},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := svc.Create(ctx, "user-1", tc.in); !errors.Is(err, tc.want) {
					t.Errorf("expected %v, got %v", tc.want, err)
				}
			})
		}
	})

	t.Run("parent must exist", func(t *testing.T) {
		svc, _, _ := newTestFiles()

		missing := "no-such-id"
		_, err := svc.Create(ctx, "user-1", CreateFileInput{
			Name: "notes.txt", Type: "file", Data: []byte("x"), ParentID: &missing,
		})
		if !errors.Is(err, ErrParentNotFound) {
			t.Errorf("expected ErrParentNotFound, got %v", err)
		}
	})

	t.Run("parent must be a folder", func(t *testing.T) {
		svc, _, _ := newTestFiles()
		plain := mustCreate(t, svc, "user-1", CreateFileInput{
			Name: "notes.txt", Type: "file", Data: []byte("x"),
		})

		_, err := svc.Create(ctx, "user-1", CreateFileInput{
			Name: "inside.txt", Type: "file", Data: []byte("x"), ParentID: &plain.ID,
		})
		if !errors.Is(err, ErrParentNotFolder) {
			t.Errorf("expected ErrParentNotFolder, got %v", err)
		}
	})

	t.Run("root parent always structurally valid", func(t *testing.T) {
		svc, _, _ := newTestFiles()

		file := mustCreate(t, svc, "user-1", CreateFileInput{
			Name: "notes.txt", Type: "file", Data: []byte("x"),
		})
		if file.ParentID != nil {
			t.Error("expected root parent")
		}
	})

	t.Run("folder carries no local path", func(t *testing.T) {
		svc, _, blobs := newTestFiles()

		folder := mustCreate(t, svc, "user-1", CreateFileInput{Name: "docs", Type: "folder"})
		if folder.LocalPath != nil {
			t.Error("expected folder without local path")
		}
		if len(blobs.blobs) != 0 {
			t.Error("expected no blob written for a folder")
		}
	})

	t.Run("file content stored under fresh key", func(t *testing.T) {
		svc, _, blobs := newTestFiles()

		file := mustCreate(t, svc, "user-1", CreateFileInput{
			Name: "notes.txt", Type: "file", Data: []byte("hello"),
		})
		if file.LocalPath == nil {
			t.Fatal("expected a local path")
		}
		if string(blobs.blobs[*file.LocalPath]) != "hello" {
			t.Error("expected content stored under the record's key")
		}
	})

	t.Run("nested file under folder", func(t *testing.T) {
		svc, _, _ := newTestFiles()
		folder := mustCreate(t, svc, "user-1", CreateFileInput{Name: "docs", Type: "folder"})

		file := mustCreate(t, svc, "user-1", CreateFileInput{
			Name: "notes.txt", Type: "file", Data: []byte("x"), ParentID: &folder.ID,
		})
		if file.ParentID == nil || *file.ParentID != folder.ID {
			t.Error("expected parent reference preserved")
		}
	})

	t.Run("blob removed when insert fails", func(t *testing.T) {
		svc, files, blobs := newTestFiles()
		files.failCreate = errors.New("insert failed")

		_, err := svc.Create(ctx, "user-1", CreateFileInput{
			Name: "notes.txt", Type: "file", Data: []byte("x"),
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if len(blobs.blobs) != 0 {
			t.Error("expected orphaned blob to be cleaned up")
		}
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("owner reads own record", func(t *testing.T) {
		svc, _, _ := newTestFiles()
		created := mustCreate(t, svc, "user-1", CreateFileInput{Name: "docs", Type: "folder"})

		got, err := svc.Get(ctx, "user-1", created.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != created.ID {
			t.Errorf("expected %q, got %q", created.ID, got.ID)
		}
	})

	t.Run("other user's record looks missing", func(t *testing.T) {
		svc, _, _ := newTestFiles()
		created := mustCreate(t, svc, "user-1", CreateFileInput{Name: "docs", Type: "folder"})

		_, errForeign := svc.Get(ctx, "user-2", created.ID)
		_, errMissing := svc.Get(ctx, "user-2", "no-such-id")

		if !errors.Is(errForeign, ErrNotFound) {
			t.Errorf("expected ErrNotFound for foreign record, got %v", errForeign)
		}
		// Ownership mismatch and absence must be indistinguishable.
		if !errors.Is(errMissing, ErrNotFound) || errForeign.Error() != errMissing.Error() {
			t.Error("expected identical errors for foreign and missing records")
		}
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("scoped to owner and parent", func(t *testing.T) {
		svc, _, _ := newTestFiles()
		folder := mustCreate(t, svc, "user-1", CreateFileInput{Name: "docs", Type: "folder"})
		mustCreate(t, svc, "user-1", CreateFileInput{Name: "a.txt", Type: "file", Data: []byte("x"), ParentID: &folder.ID})
		mustCreate(t, svc, "user-1", CreateFileInput{Name: "root.txt", Type: "file", Data: []byte("x")})
		mustCreate(t, svc, "user-2", CreateFileInput{Name: "other.txt", Type: "file", Data: []byte("x")})

		inFolder, err := svc.List(ctx, "user-1", &folder.ID, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(inFolder) != 1 || inFolder[0].Name != "a.txt" {
			t.Errorf("expected only a.txt in folder, got %d records", len(inFolder))
		}

		atRoot, err := svc.List(ctx, "user-1", nil, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// user-2's file must not leak into user-1's root listing.
		if len(atRoot) != 2 {
			t.Errorf("expected 2 root records for user-1, got %d", len(atRoot))
		}
	})

	t.Run("pages are sliced at twenty", func(t *testing.T) {
		svc, _, _ := newTestFiles()
		for i := 0; i < 25; i++ {
			mustCreate(t, svc, "user-1", CreateFileInput{
				Name: fmt.Sprintf("f-%02d.txt", i), Type: "file", Data: []byte("x"),
			})
		}

		page0, err := svc.List(ctx, "user-1", nil, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page0) != 20 {
			t.Errorf("expected 20 records on page 0, got %d", len(page0))
		}

		page1, err := svc.List(ctx, "user-1", nil, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page1) != 5 {
			t.Errorf("expected 5 records on page 1, got %d", len(page1))
		}
	})

	t.Run("out-of-range page yields empty sequence", func(t *testing.T) {
		svc, _, _ := newTestFiles()
		for i := 0; i < 3; i++ {
			mustCreate(t, svc, "user-1", CreateFileInput{
				Name: fmt.Sprintf("f-%d.txt", i), Type: "file", Data: []byte("x"),
			})
		}

		page5, err := svc.List(ctx, "user-1", nil, 5)
		if err != nil {
			t.Fatalf("expected no error for out-of-range page, got %v", err)
		}
		if len(page5) != 0 {
			t.Errorf("expected empty page, got %d records", len(page5))
		}
	})
}

func TestSetVisibility(t *testing.T) {
	ctx := context.Background()

	t.Run("publish and unpublish", func(t *testing.T) {
		svc, _, _ := newTestFiles()
		created := mustCreate(t, svc, "user-1", CreateFileInput{
			Name: "notes.txt", Type: "file", Data: []byte("x"),
		})

		published, err := svc.SetVisibility(ctx, "user-1", created.ID, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !published.IsPublic {
			t.Error("expected record to be public")
		}

		unpublished, err := svc.SetVisibility(ctx, "user-1", created.ID, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if unpublished.IsPublic {
			t.Error("expected record to be private again")
		}
	})

	t.Run("cannot toggle another user's record", func(t *testing.T) {
		svc, files, _ := newTestFiles()
		created := mustCreate(t, svc, "user-1", CreateFileInput{
			Name: "notes.txt", Type: "file", Data: []byte("x"),
		})

		_, err := svc.SetVisibility(ctx, "user-2", created.ID, true)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if files.files[created.ID].IsPublic {
			t.Error("expected record to remain private")
		}
	})
}

func TestReadContent(t *testing.T) {
	ctx := context.Background()

	t.Run("owner reads private file", func(t *testing.T) {
		svc, _, _ := newTestFiles()
		created := mustCreate(t, svc, "user-1", CreateFileInput{
			Name: "notes.txt", Type: "file", Data: []byte("hello"),
		})

		data, file, err := svc.ReadContent(ctx, "user-1", created.ID, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("expected 'hello', got %q", data)
		}
		if file.Name != "notes.txt" {
			t.Errorf("expected record returned with content, got %q", file.Name)
		}
	})

	t.Run("private file hidden from non-owners", func(t *testing.T) {
		svc, _, _ := newTestFiles()
		created := mustCreate(t, svc, "user-1", CreateFileInput{
			Name: "notes.txt", Type: "file", Data: []byte("hello"),
		})

		if _, _, err := svc.ReadContent(ctx, "user-2", created.ID, 0); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for other user, got %v", err)
		}
		if _, _, err := svc.ReadContent(ctx, "", created.ID, 0); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for anonymous, got %v", err)
		}
	})

	t.Run("public file readable by anyone", func(t *testing.T) {
		svc, _, _ := newTestFiles()
		created := mustCreate(t, svc, "user-1", CreateFileInput{
			Name: "notes.txt", Type: "file", Data: []byte("hello"), IsPublic: true,
		})

		data, _, err := svc.ReadContent(ctx, "", created.ID, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("expected 'hello', got %q", data)
		}
	})

	t.Run("folder has no content", func(t *testing.T) {
		svc, _, _ := newTestFiles()
		folder := mustCreate(t, svc, "user-1", CreateFileInput{
			Name: "docs", Type: "folder", IsPublic: true,
		})

		// Same answer for the owner and for strangers.
		if _, _, err := svc.ReadContent(ctx, "user-1", folder.ID, 0); !errors.Is(err, ErrFolderHasNoContent) {
			t.Errorf("expected ErrFolderHasNoContent for owner, got %v", err)
		}
		if _, _, err := svc.ReadContent(ctx, "", folder.ID, 0); !errors.Is(err, ErrFolderHasNoContent) {
			t.Errorf("expected ErrFolderHasNoContent for anonymous, got %v", err)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		svc, _, _ := newTestFiles()

		if _, _, err := svc.ReadContent(ctx, "user-1", "no-such-id", 0); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("missing blob surfaces as not found", func(t *testing.T) {
		svc, _, blobs := newTestFiles()
		created := mustCreate(t, svc, "user-1", CreateFileInput{
			Name: "notes.txt", Type: "file", Data: []byte("hello"),
		})
		delete(blobs.blobs, *created.LocalPath)

		if _, _, err := svc.ReadContent(ctx, "user-1", created.ID, 0); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("size selects a stored variant", func(t *testing.T) {
		svc, _, blobs := newTestFiles()
		created := mustCreate(t, svc, "user-1", CreateFileInput{
			Name: "pic.png", Type: "image", Data: []byte("full"),
		})
		blobs.blobs[*created.LocalPath+"_100"] = []byte("thumb")

		data, _, err := svc.ReadContent(ctx, "user-1", created.ID, 100)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "thumb" {
			t.Errorf("expected variant bytes, got %q", data)
		}

		// A variant that was never produced reads like a missing file.
		if _, _, err := svc.ReadContent(ctx, "user-1", created.ID, 500); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for absent variant, got %v", err)
		}
	})
}
