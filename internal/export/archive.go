package export

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// ManifestEntry describes one bundled file.
type ManifestEntry struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// Manifest lists the bundle contents with their digests.
type Manifest struct {
	RunID     string          `json:"run_id"`
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Files     []ManifestEntry `json:"files"`
}

// Digest hashes r with SHA-256 and BLAKE3 in one pass.
func Digest(r io.Reader) (ManifestEntry, error) {
	sh := sha256.New()
	b3 := blake3.New()
	n, err := io.Copy(io.MultiWriter(sh, b3), r)
	if err != nil {
		return ManifestEntry{}, err
	}
	return ManifestEntry{
		Size:   n,
		SHA256: hex.EncodeToString(sh.Sum(nil)),
		BLAKE3: hex.EncodeToString(b3.Sum(nil)),
	}, nil
}

// BundleSink packs previously written exports into a tar.xz archive with a
// manifest. It must run after the sinks that produce its members. The
// validation report named by ExportInfo.Report is packed last when present.
type BundleSink struct {
	store   FileStore
	name    string
	members []string
}

// NewBundleSink creates a BundleSink. An empty name takes the default.
func NewBundleSink(store FileStore, name string, members []string) *BundleSink {
	if name == "" {
		name = DefaultBundle
	}
	return &BundleSink{store: store, name: name, members: members}
}

// Name implements pipeline.Sink.
func (s *BundleSink) Name() string { return "bundle" }

// Write implements pipeline.Sink. The manifest is written beside the
// archive and as its first entry.
func (s *BundleSink) Write(ctx context.Context, _ domain.Corpus, info domain.ExportInfo) ([]domain.Artifact, error) {
	manifest := Manifest{
		RunID:     info.RunID,
		Version:   info.Version,
		CreatedAt: timestamp(info.GeneratedAt),
		Files:     make([]ManifestEntry, 0, len(s.members)+1),
	}
	members := s.members
	if info.Report != "" {
		members = append(slices.Clone(members), info.Report)
	}
	for _, name := range members {
		entry, err := s.digest(ctx, name)
		if err != nil {
			return nil, err
		}
		manifest.Files = append(manifest.Files, entry)
	}

	manifestArt, err := s.store.WriteFile(ctx, ManifestName, func(w io.Writer) error {
		return encodeJSON(w, manifest)
	})
	if err != nil {
		return nil, err
	}

	bundleArt, err := s.store.WriteFile(ctx, s.name, func(w io.Writer) error {
		return s.pack(ctx, w, manifest, info)
	})
	if err != nil {
		return []domain.Artifact{manifestArt}, err
	}
	return []domain.Artifact{bundleArt, manifestArt}, nil
}

func (s *BundleSink) digest(ctx context.Context, name string) (ManifestEntry, error) {
	rc, err := s.store.Open(ctx, name)
	if err != nil {
		return ManifestEntry{}, err
	}
	defer rc.Close()
	entry, err := Digest(rc)
	if err != nil {
		return ManifestEntry{}, fmt.Errorf("hashing %s: %w", name, err)
	}
	entry.Name = name
	return entry, nil
}

func (s *BundleSink) pack(ctx context.Context, w io.Writer, manifest Manifest, info domain.ExportInfo) error {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating xz writer: %w", err)
	}
	tw := tar.NewWriter(xw)
	modTime := info.GeneratedAt.UTC()

	var buf bytes.Buffer
	if err := encodeJSON(&buf, manifest); err != nil {
		return err
	}
	if err := writeTarEntry(tw, ManifestName, int64(buf.Len()), modTime, &buf); err != nil {
		return err
	}

	for _, entry := range manifest.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		rc, err := s.store.Open(ctx, entry.Name)
		if err != nil {
			return err
		}
		err = writeTarEntry(tw, entry.Name, entry.Size, modTime, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("adding %s: %w", entry.Name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return xw.Close()
}

func writeTarEntry(tw *tar.Writer, name string, size int64, modTime time.Time, r io.Reader) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    size,
		ModTime: modTime,
		Format:  tar.FormatPAX,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.CopyN(tw, r, size)
	return err
}
