package api

import (
	"net/http"

	"github.com/rezvoj/RecipeSiteBackend/internal/imaging"
	"github.com/rezvoj/RecipeSiteBackend/internal/media"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
)

// uploadPhoto reads the multipart "photo" field, processes it and stores
// the result. It returns the stored name, or "" when the form has no photo
// and optional is set.
func uploadPhoto(w http.ResponseWriter, r *http.Request, files *media.Store, optional bool) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUpload+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUpload); err != nil {
		return "", model.Invalid("photo", "file too large or invalid multipart form")
	}

	file, _, err := r.FormFile("photo")
	if err == http.ErrMissingFile && optional {
		return "", nil
	}
	if err != nil {
		return "", model.Invalid("photo", "photo file required")
	}
	defer file.Close()

	data, err := imaging.Photo(file)
	if err != nil {
		return "", err
	}
	return files.Save(data)
}

// replacePhoto uploads a photo and records it with set, which returns the
// name it replaced. The stale file is removed once the record points at the
// new one; the new file is removed again when set fails.
func replacePhoto(w http.ResponseWriter, r *http.Request, files *media.Store, set func(name string) (string, error)) (string, bool) {
	name, err := uploadPhoto(w, r, files, false)
	if err != nil {
		writeError(w, r, err)
		return "", false
	}

	old, err := set(name)
	if err != nil {
		files.Remove(name)
		writeError(w, r, err)
		return "", false
	}
	files.Remove(old)
	return name, true
}
