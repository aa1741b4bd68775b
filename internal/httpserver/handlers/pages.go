package handlers

import (
	"html/template"
	"net/http"

	"github.com/smartmark/smartmark/internal/auth"
	"github.com/smartmark/smartmark/internal/httpserver/deps"
	"github.com/smartmark/smartmark/internal/logger"
)

var loginTmpl = template.Must(template.New("login").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>SmartMark — sign in</title></head>
<body>
  <h1>SmartMark</h1>
  {{if .AuthFailed}}<p class="error">Sign-in failed, please try again.</p>{{end}}
  <a href="/auth/start">Sign in with Google</a>
</body>
</html>`))

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>SmartMark</title></head>
<body>
  <header>
    <h1>SmartMark</h1>
    <span>{{.Email}}</span>
    <form method="post" action="/auth/signout"><button type="submit">Sign out</button></form>
  </header>
  <form id="add-form">
    <input id="title" placeholder="Title" required>
    <input id="url" placeholder="URL" required>
    <button type="submit">Add</button>
  </form>
  <p id="error" hidden></p>
  <ul id="bookmarks"></ul>
  <script>
  (function () {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    var list = document.getElementById("bookmarks");
    var errBox = document.getElementById("error");
    var title = document.getElementById("title");
    var url = document.getElementById("url");
    // Inputs are cleared only once the add is confirmed by a state
    // frame; on failure they stay filled so the user can retry.
    var pendingAdd = false;

    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === "error") {
        if (msg.op === "add") pendingAdd = false;
        errBox.textContent = msg.message;
        errBox.hidden = false;
        return;
      }
      if (msg.type !== "state") return;
      if (pendingAdd) {
        title.value = "";
        url.value = "";
        pendingAdd = false;
      }
      errBox.hidden = true;
      list.textContent = "";
      (msg.bookmarks || []).forEach(function (b) {
        var li = document.createElement("li");
        var a = document.createElement("a");
        a.href = b.url;
        a.textContent = b.title;
        a.target = "_blank";
        var del = document.createElement("button");
        del.textContent = "✕";
        del.onclick = function () {
          ws.send(JSON.stringify({op: "delete", id: b.id}));
        };
        li.appendChild(a);
        li.appendChild(del);
        list.appendChild(li);
      });
    };

    document.getElementById("add-form").onsubmit = function (e) {
      e.preventDefault();
      pendingAdd = true;
      ws.send(JSON.stringify({op: "add", title: title.value, url: url.value}));
    };
  })();
  </script>
</body>
</html>`))

// LoginPage renders the sign-in page. Already-authenticated callers go
// straight to the dashboard.
func LoginPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := d.Sessions.FromRequest(r); err == nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err := loginTmpl.Execute(w, struct{ AuthFailed bool }{
			AuthFailed: r.URL.Query().Get("error") == "auth",
		})
		if err != nil {
			d.Logger.Debug("failed to render login page", logger.Error(err))
		}
	}
}

// Dashboard renders the bookmark view shell. The list itself arrives
// over the websocket as state frames.
func Dashboard(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := auth.SessionFrom(r.Context())
		if !ok {
			http.Redirect(w, r, "/auth/login", http.StatusFound)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := dashboardTmpl.Execute(w, sess); err != nil {
			d.Logger.Debug("failed to render dashboard", logger.Error(err))
		}
	}
}
