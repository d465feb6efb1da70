package httpapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/arogoff/nas/internal/fsutil"
	"github.com/arogoff/nas/internal/jailfs"
	"github.com/arogoff/nas/internal/perm"
	"github.com/arogoff/nas/internal/validate"
)

// handleShareFiles dispatches /api/shares/{id}/files[/...] requests.
// The permission check runs before any filesystem access, and every
// caller-supplied path goes through the sandbox.
func (s *Server) handleShareFiles(w http.ResponseWriter, r *http.Request, shareID int64, rest []string) {
	switch {
	case len(rest) == 0:
		switch r.Method {
		case http.MethodGet:
			s.handleFileList(w, r, shareID)
		case http.MethodPost:
			s.handleFileUpload(w, r, shareID)
		case http.MethodDelete:
			s.handleFileDelete(w, r, shareID)
		default:
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		}
	case len(rest) == 1 && rest[0] == "download":
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		s.handleFileDownload(w, r, shareID, false)
	case len(rest) == 1 && rest[0] == "preview":
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		s.handleFileDownload(w, r, shareID, true)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleFileList(w http.ResponseWriter, r *http.Request, shareID int64) {
	share := s.shareForAccess(w, r, shareID, perm.LevelRead)
	if share == nil {
		return
	}
	rel := r.URL.Query().Get("path")
	jail := jailfs.New(share.RootPath)
	entries, err := afero.ReadDir(jail, rel)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid path"})
		return
	}
	type item struct {
		Name    string `json:"name"`
		IsDir   bool   `json:"is_dir"`
		Size    int64  `json:"size"`
		ModTime int64  `json:"mod_time"`
	}
	out := make([]item, 0, len(entries))
	for _, e := range entries {
		out = append(out, item{
			Name:    e.Name(),
			IsDir:   e.IsDir(),
			Size:    e.Size(),
			ModTime: e.ModTime().Unix(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (s *Server) handleFileUpload(w http.ResponseWriter, r *http.Request, shareID int64) {
	share := s.shareForAccess(w, r, shareID, perm.LevelWrite)
	if share == nil {
		return
	}
	base := r.URL.Query().Get("path")

	file, hdr, err := s.readMultipartFile(r, "file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file"})
		return
	}
	defer file.Close()

	name := filepath.Base(hdr.Filename)
	if err := validate.Filename(name); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rel := path.Join(strings.Trim(filepath.ToSlash(base), "/"), name)
	jail := jailfs.New(share.RootPath)
	dst, err := jail.Create(rel)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid path"})
		return
	}

	if _, err := io.Copy(dst, file); err != nil {
		_ = dst.Close()
		// A half-written upload is removed; a denied or failed request
		// must not leave a partial file behind.
		_ = jail.Remove(rel)
		s.Logger.Error("upload failed", "share_id", shareID, "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upload failed"})
		return
	}
	if err := dst.Close(); err != nil {
		_ = jail.Remove(rel)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upload failed"})
		return
	}

	s.logActivity(r, shareID, "upload", rel)
	writeJSON(w, http.StatusOK, map[string]string{"ok": "1"})
}

// handleFileDownload serves a file as an attachment, or inline when
// preview is set (content type sniffed from the head of the file).
func (s *Server) handleFileDownload(w http.ResponseWriter, r *http.Request, shareID int64, preview bool) {
	share := s.shareForAccess(w, r, shareID, perm.LevelRead)
	if share == nil {
		return
	}
	rel := r.URL.Query().Get("path")
	local, err := fsutil.Resolve(share.RootPath, rel)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid path"})
		return
	}
	st, err := os.Stat(local)
	if err != nil || st.IsDir() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	if preview {
		f, err := os.Open(local)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		defer f.Close()
		head := make([]byte, 512)
		n, _ := io.ReadFull(f, head)
		w.Header().Set("content-type", http.DetectContentType(head[:n]))
		http.ServeContent(w, r, filepath.Base(local), st.ModTime(), f)
		return
	}

	w.Header().Set("content-type", "application/octet-stream")
	w.Header().Set("content-disposition", `attachment; filename="`+stripQuotes(filepath.Base(local))+`"`)
	http.ServeFile(w, r, local)
	s.logActivity(r, shareID, "download", cleanRel(rel))
}

func (s *Server) handleFileDelete(w http.ResponseWriter, r *http.Request, shareID int64) {
	share := s.shareForAccess(w, r, shareID, perm.LevelWrite)
	if share == nil {
		return
	}
	rel := r.URL.Query().Get("path")
	jail := jailfs.New(share.RootPath)
	if _, err := jail.Stat(rel); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err := jail.RemoveAll(rel); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delete failed"})
		return
	}
	s.logActivity(r, shareID, "delete", cleanRel(rel))
	writeJSON(w, http.StatusOK, map[string]string{"ok": "1"})
}

// logActivity records a completed file operation; failures are logged
// but never fail the request that already succeeded.
func (s *Server) logActivity(r *http.Request, shareID int64, action, filename string) {
	ident := identityFrom(r)
	if err := s.DB.LogFileActivity(r.Context(), shareID, ident.ID, action, filename); err != nil {
		s.Logger.Warn("activity log failed", "action", action, "err", err.Error())
	}
}

func (s *Server) readMultipartFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	max := s.MaxUploadBytes
	if max <= 0 {
		max = 128 << 20
	}
	r.Body = http.MaxBytesReader(nil, r.Body, max)
	if err := r.ParseMultipartForm(max); err != nil {
		return nil, nil, err
	}
	return r.FormFile(field)
}

func cleanRel(p string) string {
	return strings.Trim(path.Clean("/"+filepath.ToSlash(p)), "/")
}

func stripQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}
