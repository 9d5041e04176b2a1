package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"StudySpace/internal/model"
)

// FileStore 在本地目录下每片一个文件，token 为裸字符串，user/session 为 JSON。
// 写入走临时文件 + rename，保证片粒度原子替换。不保证多进程一致性。
type FileStore struct {
	dir    string
	logger *zap.Logger
}

func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) path(slice string) string {
	return filepath.Join(s.dir, slice+".json")
}

func (s *FileStore) Restore(ctx context.Context) (State, error) {
	state := State{}

	if raw, ok := s.readSlice(sliceToken); ok {
		var token string
		if err := json.Unmarshal(raw, &token); err != nil {
			s.discardCorrupt(sliceToken, err)
		} else {
			state.Token = token
		}
	}

	if raw, ok := s.readSlice(sliceUser); ok {
		var user model.Identity
		if err := json.Unmarshal(raw, &user); err != nil {
			s.discardCorrupt(sliceUser, err)
		} else {
			state.User = &user
		}
	}

	if raw, ok := s.readSlice(sliceSession); ok {
		var session model.OnboardingSession
		if err := json.Unmarshal(raw, &session); err != nil {
			s.discardCorrupt(sliceSession, err)
		} else {
			state.Session = &session
		}
	}

	return state, nil
}

func (s *FileStore) Commit(ctx context.Context, m Mutation) error {
	if m.Token != nil {
		if err := s.writeSlice(sliceToken, *m.Token); err != nil {
			return err
		}
	}

	if m.User != nil {
		if err := s.writeSlice(sliceUser, m.User); err != nil {
			return err
		}
	}

	if m.Session != nil {
		if err := s.writeSlice(sliceSession, m.Session); err != nil {
			return err
		}
	}

	if m.replacesSession() {
		s.removeSlice(sliceSession)
	}

	if m.replacesUser() {
		s.removeSlice(sliceUser)
	}

	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.removeSlice(sliceToken)
	s.removeSlice(sliceUser)
	s.removeSlice(sliceSession)
	return nil
}

func (s *FileStore) readSlice(slice string) ([]byte, bool) {
	raw, err := os.ReadFile(s.path(slice))
	if err != nil {
		return nil, false
	}
	return raw, true
}

func (s *FileStore) writeSlice(slice string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, slice+".*.tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), s.path(slice))
}

func (s *FileStore) removeSlice(slice string) {
	if err := os.Remove(s.path(slice)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove state slice",
			zap.String("slice", slice),
			zap.Error(err),
		)
	}
}

func (s *FileStore) discardCorrupt(slice string, err error) {
	s.logger.Warn("Discarding corrupt state slice",
		zap.String("slice", slice),
		zap.Error(err),
	)
	s.removeSlice(slice)
}
