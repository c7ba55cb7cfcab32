package stream

import "net/http"

// Boundary separates parts of the MJPEG response.
const Boundary = "frame"

// ContentType is the response media type of the video feed.
const ContentType = "multipart/x-mixed-replace; boundary=" + Boundary

var (
	partHeader  = []byte("--" + Boundary + "\r\nContent-Type: image/jpeg\r\n\r\n")
	partTrailer = []byte("\r\n")
)

// WritePart writes one JPEG as a multipart part.
func WritePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := w.Write(partHeader); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := w.Write(partTrailer)
	return err
}

// ServeHTTP streams frames to the client until it disconnects or the hub
// closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s := h.Subscribe()
	defer h.Unsubscribe(s.ID)
	logf("viewer %s connected from %s", s.ID, r.RemoteAddr)

	for {
		select {
		case jpeg, ok := <-s.C():
			if !ok {
				return
			}
			if err := WritePart(w, jpeg); err != nil {
				logf("viewer %s write failed: %v", s.ID, err)
				return
			}
			flusher.Flush()
			s.sent.Add(1)
		case <-r.Context().Done():
			logf("viewer %s disconnected after %d frames", s.ID, s.sent.Load())
			return
		}
	}
}
