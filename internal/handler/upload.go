package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"go-channel-identity/pkg/apierror"
)

const maxFormValue = 4 << 10

// multipartForm holds text fields and the temp-file paths of file parts.
// The caller owns the temp files; discard removes whatever is left.
type multipartForm struct {
	fields map[string]string
	files  map[string]string
}

func (f *multipartForm) discard() {
	for _, path := range f.files {
		_ = os.Remove(path)
	}
}

// readMultipart streams a multipart body into memory (text fields) and temp
// files (the named file fields). Unknown file fields are skipped.
func readMultipart(w http.ResponseWriter, r *http.Request, maxSize int64, tempDir string, fileFields ...string) (*multipartForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, apierror.BadRequest("invalid multipart body", "")
	}

	wanted := make(map[string]struct{}, len(fileFields))
	for _, name := range fileFields {
		wanted[name] = struct{}{}
	}

	form := &multipartForm{fields: map[string]string{}, files: map[string]string{}}
	for {
		part, nextErr := reader.NextPart()
		if errors.Is(nextErr, io.EOF) {
			return form, nil
		}
		if nextErr != nil {
			form.discard()
			return nil, multipartError(nextErr)
		}

		if err := form.consume(part, wanted, tempDir); err != nil {
			_ = part.Close()
			form.discard()
			return nil, err
		}
		_ = part.Close()
	}
}

// rawFormFields keep their value exactly as sent.
var rawFormFields = map[string]struct{}{"password": {}}

func (f *multipartForm) consume(part *multipart.Part, wanted map[string]struct{}, tempDir string) error {
	name := part.FormName()
	if part.FileName() == "" {
		value, err := io.ReadAll(io.LimitReader(part, maxFormValue))
		if err != nil {
			return multipartError(err)
		}
		if _, raw := rawFormFields[name]; raw {
			f.fields[name] = string(value)
			return nil
		}
		f.fields[name] = strings.TrimSpace(string(value))
		return nil
	}

	if _, ok := wanted[name]; !ok {
		return nil
	}
	if _, dup := f.files[name]; dup {
		return apierror.BadRequest("duplicate file field", name)
	}

	tmp, err := os.CreateTemp(tempDir, "upload-*")
	if err != nil {
		return fmt.Errorf("create upload temp file: %w", err)
	}
	f.files[name] = tmp.Name()

	if _, err := io.Copy(tmp, part); err != nil {
		_ = tmp.Close()
		return multipartError(err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close upload temp file: %w", err)
	}

	return nil
}

func multipartError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large") {
		return apierror.New("PAYLOAD_TOO_LARGE", "request body exceeds MAX_UPLOAD_SIZE", "", http.StatusRequestEntityTooLarge)
	}
	return apierror.BadRequest("invalid multipart stream", "")
}
