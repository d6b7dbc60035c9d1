package minio

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/MolMatch/internal/domain/molecule"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/pkg/errors"
)

// ContentTypeMolfile is set on every stored object.
const ContentTypeMolfile = "chemical/x-mdl-molfile"

// maxObjectBytes bounds a single molfile download.
const maxObjectBytes = 16 << 20

// MoleculeRepository implements molecule.Repository over a bucket. Objects
// hold a single V2000 record; user metadata carries the name, formula and
// digest so listings need not download content.
type MoleculeRepository struct {
	client *Client
	logger logging.Logger
}

var _ molecule.Repository = (*MoleculeRepository)(nil)

func NewMoleculeRepository(client *Client, logger logging.Logger) *MoleculeRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &MoleculeRepository{client: client, logger: logger}
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return errors.Newf(errors.ErrCodeValidation, "invalid object key %q", key)
	}
	return nil
}

func (r *MoleculeRepository) Save(ctx context.Context, key string, m *molecule.Molecule) error {
	if err := validKey(key); err != nil {
		return err
	}
	data, err := molecule.MarshalMolfile(m)
	if err != nil {
		return err
	}
	_, err = r.client.api.PutObject(ctx, r.client.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentTypeMolfile,
		UserMetadata: map[string]string{
			"name":    m.Name,
			"formula": m.Formula(),
			"digest":  m.Digest(),
		},
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to store molecule").WithDetail(key)
	}
	r.logger.Debug("molecule stored", logging.String("key", key), logging.Int("bytes", len(data)))
	return nil
}

func (r *MoleculeRepository) FindByKey(ctx context.Context, key string) (*molecule.Molecule, error) {
	data, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return molecule.ParseMolfile(bytes.NewReader(data))
}

// Get returns the raw object content under key.
func (r *MoleculeRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	obj, err := r.client.api.GetObject(ctx, r.client.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, r.readError(err, key)
	}
	defer obj.Close()

	// The SDK reports a missing key on the first read, not on GetObject.
	data, err := io.ReadAll(io.LimitReader(obj, maxObjectBytes+1))
	if err != nil {
		return nil, r.readError(err, key)
	}
	if len(data) > maxObjectBytes {
		return nil, errors.Newf(errors.ErrCodeValidation, "object %s exceeds %d bytes", key, maxObjectBytes)
	}
	return data, nil
}

func (r *MoleculeRepository) readError(err error, key string) error {
	if isNoSuchKey(err) {
		return errors.New(errors.ErrCodeMoleculeNotFound, "molecule not found").WithDetail(key)
	}
	return errors.Wrap(err, errors.ErrCodeStorageError, "failed to read molecule").WithDetail(key)
}

func (r *MoleculeRepository) Exists(ctx context.Context, key string) (bool, error) {
	if err := validKey(key); err != nil {
		return false, err
	}
	_, err := r.client.api.StatObject(ctx, r.client.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, errors.Wrap(err, errors.ErrCodeStorageError, "failed to stat molecule").WithDetail(key)
}

func (r *MoleculeRepository) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	// S3 DELETE of a missing key succeeds.
	if err := r.client.api.RemoveObject(ctx, r.client.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to delete molecule").WithDetail(key)
	}
	return nil
}

// ListKeys returns up to limit object keys under prefix in lexical order.
// limit <= 0 returns all of them.
func (r *MoleculeRepository) ListKeys(ctx context.Context, prefix string, limit int) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var keys []string
	for obj := range r.client.api.ListObjects(ctx, r.client.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeStorageError, "failed to list molecules").WithDetail(prefix)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		keys = append(keys, obj.Key)
		if limit > 0 && len(keys) == limit {
			break
		}
	}
	return keys, nil
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

//Personal.AI order the ending
