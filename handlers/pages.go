package handlers

import (
	"fmt"
	"html/template"
	"net/http"
)

// Success and Cancel are the terminal redirect targets of the hosted
// checkout. They relay the outcome to the window that opened the checkout
// and close themselves; no business logic lives here.

func (s *Server) Success(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
  <head>
    <title>Payment Successful</title>
    <script>
      var sessionId = '%s';
      if (window.opener && sessionId) {
        window.opener.postMessage({ type: 'PAYMENT_SUCCESS', sessionId: sessionId }, '*');
      }
      window.close();
    </script>
  </head>
  <body>
    <h1>Payment Successful!</h1>
    <p>Your premium features are being activated. You can close this window now.</p>
  </body>
</html>`, template.JSEscapeString(sessionID))

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}

func (s *Server) Cancel(w http.ResponseWriter, r *http.Request) {
	const page = `<!DOCTYPE html>
<html>
  <head>
    <title>Payment Cancelled</title>
    <script>
      if (window.opener) {
        window.opener.postMessage({ type: 'PAYMENT_CANCELLED' }, '*');
      }
      window.close();
    </script>
  </head>
  <body>
    <h1>Payment Cancelled</h1>
    <p>You can close this window now.</p>
  </body>
</html>`

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}
