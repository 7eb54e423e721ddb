package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/cwbudde/goiqdb/internal/iqdb"
)

func newTestServer(t *testing.T) (*Server, *iqdb.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.iqdb")
	db, err := iqdb.Open(path)
	if err != nil {
		t.Fatalf("iqdb.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New("127.0.0.1:0", db), db
}

func encodePNGMultipart(t *testing.T, seed int, postID uint32, postField string) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := uint8(0)
			if (x/4+y/4+seed)%2 == 0 {
				v = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: uint8(seed * 10), B: 255 - v, A: 255})
		}
	}

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("image", "test.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if err := png.Encode(part, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	if postField != "" {
		mw.WriteField(postField, strconv.FormatUint(uint64(postID), 10))
	}
	mw.Close()
	return buf, mw.FormDataContentType()
}

func TestHandleAddAndGetImage(t *testing.T) {
	s, _ := newTestServer(t)

	body, contentType := encodePNGMultipart(t, 1, 101, "postId")
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	s.handleImages(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "/images/101", nil)
	getRec := httptest.NewRecorder()
	s.handleImageByID(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", getRec.Code, getRec.Body.String())
	}

	var decoded map[string]any
	if err := json.Unmarshal(getRec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded["postId"].(float64) != 101 {
		t.Fatalf("unexpected postId in response: %+v", decoded)
	}
}

func TestHandleQueryReturnsRankedResults(t *testing.T) {
	s, _ := newTestServer(t)

	body, contentType := encodePNGMultipart(t, 1, 5, "postId")
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.handleImages(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup add failed: %d %s", rec.Code, rec.Body.String())
	}

	qBody, qContentType := encodePNGMultipart(t, 1, 0, "")
	qReq := httptest.NewRequest(http.MethodPost, "/query", qBody)
	qReq.Header.Set("Content-Type", qContentType)
	qRec := httptest.NewRecorder()
	s.handleQuery(qRec, qReq)
	if qRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", qRec.Code, qRec.Body.String())
	}

	var decoded struct {
		Results []struct {
			PostID uint32 `json:"PostID"`
		} `json:"results"`
	}
	if err := json.Unmarshal(qRec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Results) == 0 || decoded.Results[0].PostID != 5 {
		t.Fatalf("expected post 5 to rank first, got %+v", decoded.Results)
	}
}

func TestHandleDeleteImage(t *testing.T) {
	s, _ := newTestServer(t)

	body, contentType := encodePNGMultipart(t, 2, 9, "postId")
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.handleImages(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup add failed: %d", rec.Code)
	}

	delReq := httptest.NewRequest(http.MethodDelete, "/images/9", nil)
	delRec := httptest.NewRecorder()
	s.handleImageByID(delRec, delReq)
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", delRec.Code, delRec.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "/images/9", nil)
	getRec := httptest.NewRecorder()
	s.handleImageByID(getRec, getReq)
	if getRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", getRec.Code)
	}
}

func TestHandleAddMissingPostID(t *testing.T) {
	s, _ := newTestServer(t)

	body, contentType := encodePNGMultipart(t, 1, 0, "")
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.handleImages(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing postId, got %d", rec.Code)
	}
}
