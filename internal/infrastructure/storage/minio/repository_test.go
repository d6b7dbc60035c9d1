package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/MolMatch/internal/domain/molecule"
	"github.com/turtacn/MolMatch/internal/testutil"
	pkgerrors "github.com/turtacn/MolMatch/pkg/errors"
)

type RepositoryTestSuite struct {
	suite.Suite
	api  *mockObjectAPI
	repo *MoleculeRepository
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	s.api = &mockObjectAPI{}
	s.repo = NewMoleculeRepository(NewClientFromAPI(s.api, "molecules", nil), testutil.NewMockLogger())
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	s.api.AssertExpectations(s.T())
}

func (s *RepositoryTestSuite) TestSave_WritesMolfileWithMetadata() {
	ethanol := testutil.Ethanol()
	want, err := molecule.MarshalMolfile(ethanol)
	s.Require().NoError(err)

	s.api.On("PutObject", mock.Anything, "molecules", "lib/ethanol.mol", want, int64(len(want)),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool {
			return o.ContentType == ContentTypeMolfile &&
				o.UserMetadata["formula"] == ethanol.Formula() &&
				o.UserMetadata["digest"] == ethanol.Digest()
		})).Return(minio.UploadInfo{Key: "lib/ethanol.mol"}, nil).Once()

	s.NoError(s.repo.Save(s.ctx, "lib/ethanol.mol", ethanol))
}

func (s *RepositoryTestSuite) TestSave_StorageError() {
	s.api.On("PutObject", mock.Anything, "molecules", "k", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("quota exceeded"))

	err := s.repo.Save(s.ctx, "k", testutil.Methane())
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func (s *RepositoryTestSuite) TestSave_InvalidKey() {
	s.True(pkgerrors.IsCode(s.repo.Save(s.ctx, "", testutil.Methane()), pkgerrors.ErrCodeValidation))
	s.True(pkgerrors.IsCode(s.repo.Save(s.ctx, "/abs", testutil.Methane()), pkgerrors.ErrCodeValidation))
}

func (s *RepositoryTestSuite) TestFindByKey_RoundTrip() {
	benzene := testutil.Benzene()
	data, err := molecule.MarshalMolfile(benzene)
	s.Require().NoError(err)

	s.api.On("GetObject", mock.Anything, "molecules", "benzene.mol", mock.Anything).
		Return(io.NopCloser(bytes.NewReader(data)), nil)

	got, err := s.repo.FindByKey(s.ctx, "benzene.mol")
	s.Require().NoError(err)
	s.Equal(benzene.Digest(), got.Digest())
}

func (s *RepositoryTestSuite) TestFindByKey_Missing() {
	s.api.On("GetObject", mock.Anything, "molecules", "nope.mol", mock.Anything).
		Return(errReader{err: noSuchKey}, nil)

	_, err := s.repo.FindByKey(s.ctx, "nope.mol")
	s.True(pkgerrors.IsNotFound(err))
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeMoleculeNotFound))
}

func (s *RepositoryTestSuite) TestFindByKey_Corrupt() {
	s.api.On("GetObject", mock.Anything, "molecules", "bad.mol", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte("x\n\n\nnot a counts line\n"))), nil)

	_, err := s.repo.FindByKey(s.ctx, "bad.mol")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeMoleculeParsingFailed))
}

func (s *RepositoryTestSuite) TestExists() {
	s.api.On("StatObject", mock.Anything, "molecules", "a", mock.Anything).Return(minio.ObjectInfo{Key: "a"}, nil)
	s.api.On("StatObject", mock.Anything, "molecules", "b", mock.Anything).Return(minio.ObjectInfo{}, noSuchKey)
	s.api.On("StatObject", mock.Anything, "molecules", "c", mock.Anything).Return(minio.ObjectInfo{}, errors.New("timeout"))

	ok, err := s.repo.Exists(s.ctx, "a")
	s.NoError(err)
	s.True(ok)

	ok, err = s.repo.Exists(s.ctx, "b")
	s.NoError(err)
	s.False(ok)

	_, err = s.repo.Exists(s.ctx, "c")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func (s *RepositoryTestSuite) TestDelete() {
	s.api.On("RemoveObject", mock.Anything, "molecules", "a", mock.Anything).Return(nil).Once()
	s.NoError(s.repo.Delete(s.ctx, "a"))
}

func (s *RepositoryTestSuite) TestListKeys() {
	ch := make(chan minio.ObjectInfo, 4)
	ch <- minio.ObjectInfo{Key: "lib/a.mol"}
	ch <- minio.ObjectInfo{Key: "lib/sub/"}
	ch <- minio.ObjectInfo{Key: "lib/b.mol"}
	ch <- minio.ObjectInfo{Key: "lib/c.mol"}
	close(ch)
	s.api.On("ListObjects", mock.Anything, "molecules", minio.ListObjectsOptions{Prefix: "lib/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	keys, err := s.repo.ListKeys(s.ctx, "lib/", 2)
	s.NoError(err)
	s.Equal([]string{"lib/a.mol", "lib/b.mol"}, keys)
}

func (s *RepositoryTestSuite) TestListKeys_Error() {
	ch := make(chan minio.ObjectInfo, 1)
	ch <- minio.ObjectInfo{Err: errors.New("access denied")}
	close(ch)
	s.api.On("ListObjects", mock.Anything, "molecules", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	_, err := s.repo.ListKeys(s.ctx, "", 0)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

//Personal.AI order the ending
