package webdavserver

import (
	"context"
	"os"

	"golang.org/x/net/webdav"

	"github.com/arogoff/nas/internal/jailfs"
)

// davFS adapts a jailed share filesystem to webdav.FileSystem. The
// jail already resolves every name against the share root, so the
// adapter only bridges the interface shapes.
type davFS struct {
	jail *jailfs.FS
}

func newDavFS(root string) *davFS {
	return &davFS{jail: jailfs.New(root)}
}

func (fs *davFS) Mkdir(ctx context.Context, name string, perm os.FileMode) error {
	return fs.jail.Mkdir(name, perm)
}

func (fs *davFS) OpenFile(ctx context.Context, name string, flag int, perm os.FileMode) (webdav.File, error) {
	return fs.jail.OpenFile(name, flag, perm)
}

func (fs *davFS) RemoveAll(ctx context.Context, name string) error {
	return fs.jail.RemoveAll(name)
}

func (fs *davFS) Rename(ctx context.Context, oldName, newName string) error {
	return fs.jail.Rename(oldName, newName)
}

func (fs *davFS) Stat(ctx context.Context, name string) (os.FileInfo, error) {
	return fs.jail.Stat(name)
}

var _ webdav.FileSystem = (*davFS)(nil)
