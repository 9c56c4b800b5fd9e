package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/ironsheep/fra-claim-ocr/internal/logger"
	"github.com/ironsheep/fra-claim-ocr/internal/pipeline"
)

// Multipart field names.
const (
	fieldFile  = "file"
	fieldFiles = "files"
)

// multipartMemory is the part of a form kept in memory; the rest spills to disk.
const multipartMemory = 8 << 20

// POST /ocr
func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	log := logpkg.FromContextOr(r.Context(), s.logger)

	form, err := s.parseForm(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() { _ = form.RemoveAll() }()

	files := form.File[fieldFile]
	if len(files) == 0 {
		writeError(w, errNoFile)
		return
	}
	fh := files[0]

	contentType := fh.Header.Get("Content-Type")
	if err := pipeline.CheckContentType(contentType); err != nil {
		log.Info("upload rejected", zap.String("filename", fh.Filename), zap.String("content_type", contentType))
		writeError(w, errUnsupportedType)
		return
	}

	up, err := s.stage(fh)
	if err != nil {
		log.Error("failed to stage upload", zap.String("filename", fh.Filename), zap.Error(err))
		writeJSON(w, http.StatusOK, stagingFailure(err))
		return
	}
	defer up.release(log)

	res := s.pipeline.Process(r.Context(), up.document())
	writeJSON(w, http.StatusOK, res)
}

// BatchResponse is the body of POST /ocr/batch.
type BatchResponse struct {
	Results []pipeline.BatchItem `json:"results"`
}

// POST /ocr/batch
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	log := logpkg.FromContextOr(r.Context(), s.logger)

	form, err := s.parseForm(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() { _ = form.RemoveAll() }()

	files := form.File[fieldFiles]
	if len(files) == 0 {
		writeError(w, errNoFile)
		return
	}
	if len(files) > pipeline.MaxBatchSize {
		writeError(w, errBatchTooLarge)
		return
	}

	docs := make([]pipeline.Document, len(files))
	for i, fh := range files {
		up, err := s.stage(fh)
		if err != nil {
			log.Error("failed to stage upload", zap.String("filename", fh.Filename), zap.Error(err))
			docs[i] = pipeline.Document{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Body:        errReader{err: err},
			}
			continue
		}
		defer up.release(log)
		docs[i] = up.document()
	}

	items, err := s.pipeline.ProcessBatch(r.Context(), docs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BatchResponse{Results: items})
}

// parseForm reads a multipart body. Anything that is not a readable
// multipart form is reported as a missing file.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &inputError{detail: fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit)}
		}
		return nil, errNoFile
	}
	return r.MultipartForm, nil
}

// upload is an uploaded file staged on disk.
type upload struct {
	path        string
	filename    string
	contentType string
	file        *os.File
}

// stage copies an uploaded part to a temporary file named with the upload's extension.
func (s *Server) stage(fh *multipart.FileHeader) (*upload, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.tempDir, "fra-upload-*"+safeExt(fh.Filename))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	up := &upload{path: tmp.Name(), filename: fh.Filename, contentType: fh.Header.Get("Content-Type"), file: tmp}
	if _, err := io.Copy(tmp, src); err != nil {
		up.release(zap.NewNop())
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		up.release(zap.NewNop())
		return nil, fmt.Errorf("rewind temp file: %w", err)
	}
	return up, nil
}

func (u *upload) document() pipeline.Document {
	return pipeline.Document{Filename: u.filename, ContentType: u.contentType, Body: u.file}
}

// release closes and removes the staged file.
func (u *upload) release(log *zap.Logger) {
	_ = u.file.Close()
	if err := os.Remove(u.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to cleanup temp file", zap.String("path", u.path), zap.Error(err))
	}
}

// safeExt returns the file extension when it is short and plain, else "".
func safeExt(name string) string {
	ext := filepath.Ext(filepath.Base(name))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\*`) {
		return ""
	}
	return ext
}

func stagingFailure(err error) pipeline.ExtractionResult {
	msg := "Processing failed: " + err.Error()
	return pipeline.ExtractionResult{Success: false, Error: &msg}
}

// errReader fails every read; it stands in for an upload that could not be staged.
type errReader struct {
	err error
}

func (e errReader) Read([]byte) (int, error) { return 0, e.err }
