package sftpserver

import (
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/sftp"
)

// DropboxHandlers implements sftp.Handlers over a single flat directory.
// Every requested path is flattened to its base name inside Dir, so a
// client cannot name anything outside its own drop directory.
type DropboxHandlers struct {
	Dir string
}

// resolve flattens an SFTP path into the drop directory. "/" and "."
// address the directory itself.
func (h DropboxHandlers) resolve(p string) string {
	base := path.Base(p)
	if base == "/" || base == "." {
		return h.Dir
	}
	return filepath.Join(h.Dir, base)
}

func (h DropboxHandlers) Fileread(r *sftp.Request) (io.ReaderAt, error) {
	return os.Open(h.resolve(r.Filepath))
}

func (h DropboxHandlers) Filewrite(r *sftp.Request) (io.WriterAt, error) {
	pf := r.Pflags()
	flags := 0
	if pf.Read && pf.Write {
		flags |= os.O_RDWR
	} else if pf.Write {
		flags |= os.O_WRONLY
	} else {
		flags |= os.O_RDONLY
	}
	if pf.Creat {
		flags |= os.O_CREATE
	}
	if pf.Trunc {
		flags |= os.O_TRUNC
	}
	if pf.Excl {
		flags |= os.O_EXCL
	}

	// Do NOT use O_APPEND with WriterAt.
	return os.OpenFile(h.resolve(r.Filepath), flags, 0o600)
}

func (h DropboxHandlers) Filecmd(r *sftp.Request) error {
	local := h.resolve(r.Filepath)

	switch r.Method {
	case "Setstat":
		attrs := r.Attributes()
		flags := r.AttrFlags()
		if flags.Permissions {
			if err := os.Chmod(local, attrs.FileMode()); err != nil {
				return err
			}
		}
		if flags.Acmodtime {
			if err := os.Chtimes(local, attrs.AccessTime(), attrs.ModTime()); err != nil {
				return err
			}
		}
		if flags.UidGid {
			return errors.New("chown not supported")
		}
		return nil
	case "Rename":
		return os.Rename(local, h.resolve(r.Target))
	case "Mkdir":
		return os.MkdirAll(local, 0o700)
	case "Rmdir", "Remove":
		return os.Remove(local)
	case "Link", "Symlink":
		return errors.New("links not supported")
	default:
		return errors.New("unsupported command")
	}
}

func (h DropboxHandlers) Filelist(r *sftp.Request) (sftp.ListerAt, error) {
	local := h.resolve(r.Filepath)

	switch r.Method {
	case "List":
		ents, err := os.ReadDir(local)
		if err != nil {
			return nil, err
		}
		// An empty directory lists as zero entries; ListAt reports EOF.
		infos := make([]os.FileInfo, 0, len(ents))
		for _, e := range ents {
			fi, err := e.Info()
			if err != nil {
				continue
			}
			infos = append(infos, fi)
		}
		return staticLister(infos), nil
	case "Stat":
		fi, err := os.Stat(local)
		if err != nil {
			return nil, err
		}
		return staticLister([]os.FileInfo{fi}), nil
	case "Readlink":
		return nil, errors.New("readlink not supported")
	default:
		return nil, errors.New("unsupported list")
	}
}

// staticLister wraps a fixed slice of FileInfo for listing.
type staticLister []os.FileInfo

// ListAt satisfies sftp.ListerAt with slice-based pagination.
func (l staticLister) ListAt(dst []os.FileInfo, offset int64) (int, error) {
	if offset < 0 {
		return 0, io.EOF
	}
	if offset >= int64(len(l)) {
		return 0, io.EOF
	}
	n := copy(dst, l[offset:])
	if int64(n)+offset >= int64(len(l)) {
		return n, io.EOF
	}
	return n, nil
}
