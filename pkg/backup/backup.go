// Package backup copies the preference record to and from an S3 bucket so it
// survives a reinstall or moves to another device.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"

	"flow-settings/pkg/config"
	"flow-settings/pkg/prefs"
)

// ObjectName is the file name of the snapshot under the configured prefix
const ObjectName = "settings.json"

// Largest snapshot accepted on restore
const maxSnapshotBytes = 64 << 10

// ErrNoBackup is returned by Restore when the bucket holds no snapshot
var ErrNoBackup = errors.New("backup: no snapshot found")

// Store is the part of the preference store a backup needs
type Store interface {
	Load(ctx context.Context) (prefs.Record, error)
	Save(ctx context.Context, key string, value any) error
}

// Backup uploads and restores preference snapshots
type Backup struct {
	client s3iface.S3API
	bucket string
	key    string
	store  Store
	log    *zap.Logger
}

// New creates a Backup storing its snapshot at s3://bucket/<prefix>settings.json
func New(client s3iface.S3API, bucket, prefix string, store Store, log *zap.Logger) *Backup {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backup{
		client: client,
		bucket: bucket,
		key:    objectKey(prefix),
		store:  store,
		log:    log.Named("backup"),
	}
}

// NewFromConfig creates an S3 client from cfg and the AWS environment.
// Static credentials are used when AWS_ACCESS_KEY_ID and
// AWS_SECRET_ACCESS_KEY are set, otherwise the default provider chain.
func NewFromConfig(cfg config.Config, store Store, log *zap.Logger) (*Backup, error) {
	if !cfg.BackupEnabled() {
		return nil, errors.New("missing required environment variable: SETTINGS_S3_BUCKET")
	}
	if cfg.S3Region == "" {
		return nil, errors.New("missing required environment variable: AWS_DEFAULT_REGION")
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.S3Region)}
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if accessKey != "" && secretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, os.Getenv("AWS_SESSION_TOKEN"))
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create AWS session: %w", err)
	}
	return New(s3.New(sess), cfg.S3Bucket, cfg.S3Prefix, store, log), nil
}

func objectKey(prefix string) string {
	prefix = strings.TrimLeft(prefix, "/")
	if prefix == "" {
		return ObjectName
	}
	return path.Join(prefix, ObjectName)
}

// Location returns the s3:// URL of the snapshot
func (b *Backup) Location() string {
	return fmt.Sprintf("s3://%s/%s", b.bucket, b.key)
}

// Backup uploads the current record
func (b *Backup) Backup(ctx context.Context) (prefs.Snapshot, error) {
	rec, err := b.store.Load(ctx)
	if err != nil {
		return prefs.Snapshot{}, fmt.Errorf("load preferences: %w", err)
	}

	snap := prefs.NewSnapshot(rec)
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return prefs.Snapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return prefs.Snapshot{}, fmt.Errorf("upload %s: %w", b.Location(), err)
	}

	b.log.Info("Preferences backed up", zap.String("location", b.Location()))
	return snap, nil
}

// Restore downloads the snapshot and saves every key it holds through the
// store, so open screens pick the values up. Keys missing from the snapshot
// are left untouched. It returns the record stored afterwards.
func (b *Backup) Restore(ctx context.Context) (prefs.Record, error) {
	out, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return prefs.Record{}, fmt.Errorf("%w at %s", ErrNoBackup, b.Location())
		}
		return prefs.Record{}, fmt.Errorf("download %s: %w", b.Location(), err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(out.Body, maxSnapshotBytes))
	if err != nil {
		return prefs.Record{}, fmt.Errorf("read snapshot: %w", err)
	}

	values, err := decodeSnapshot(raw)
	if err != nil {
		return prefs.Record{}, err
	}

	for _, key := range prefs.Keys() {
		value, ok := values[key]
		if !ok {
			continue
		}
		if err := b.store.Save(ctx, key, value); err != nil {
			return prefs.Record{}, fmt.Errorf("restore %s: %w", key, err)
		}
	}

	b.log.Info("Preferences restored", zap.String("location", b.Location()), zap.Int("keys", len(values)))
	return b.store.Load(ctx)
}

// decodeSnapshot returns the typed values of the preference keys present in
// a snapshot document
func decodeSnapshot(raw []byte) (map[string]any, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	values := make(map[string]any, len(doc))
	for _, key := range prefs.Keys() {
		field, ok := doc[key]
		if !ok {
			continue
		}
		value, err := prefs.ParseValue(key, strings.Trim(string(field), `"`))
		if err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		values[key] = value
	}
	return values, nil
}
