package ui

// ── Base layout ───────────────────────────────────────────────────────────────

const tmplBase = `
{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Title}}</title>
{{block "head" .}}<link rel="icon" href="/icons/vga.svg">{{end}}
<style>
*{box-sizing:border-box;margin:0;padding:0}
html,body{height:100%}
body{font-family:system-ui,sans-serif;background:#f6f8fa;color:#1f2328;font-size:14px;line-height:1.5}
a{color:#0969da;text-decoration:none}
a:hover{text-decoration:underline}
.header{display:flex;align-items:center;gap:12px;padding:8px 16px;background:#fff;border-bottom:1px solid #d0d7de}
.header .logo{width:32px;height:32px}
.header .brand{font-weight:600;flex:1}
.header form{display:inline-flex;gap:6px;align-items:center}
button,.button{font:inherit;padding:4px 12px;border:1px solid #d0d7de;border-radius:6px;background:#f6f8fa;color:#1f2328;cursor:pointer}
button:hover,.button:hover{background:#eaeef2;text-decoration:none}
input[type=url],input[type=text]{font:inherit;padding:4px 8px;border:1px solid #d0d7de;border-radius:6px;min-width:280px}
main{max-width:1080px;margin:0 auto;padding:16px}
h2{font-size:16px;margin:20px 0 8px}
.alert{margin:12px 16px 0;padding:8px 12px;border:1px solid #ff8182;border-radius:6px;background:#ffebe9;color:#82071e}
.intro{background:#fff;border:1px solid #d0d7de;border-radius:6px;padding:16px}
.intro h3{font-size:15px;margin:12px 0 4px}
.intro ul{padding-left:20px}
.demos{display:flex;gap:12px;flex-wrap:wrap}
.demo{display:flex;flex-direction:column;align-items:center;gap:6px;width:160px;padding:12px;background:#fff;border:1px solid #d0d7de;border-radius:6px}
.demo img{width:96px;height:96px}
.recents{list-style:none;background:#fff;border:1px solid #d0d7de;border-radius:6px}
.recents li{display:flex;align-items:center;gap:10px;padding:6px 12px;border-bottom:1px solid #eaeef2}
.recents li:last-child{border-bottom:none}
.recents img{width:24px;height:24px}
.recents .name{font-weight:600}
.recents .src{flex:1;color:#656d76;overflow:hidden;text-overflow:ellipsis;white-space:nowrap}
.dim{color:#656d76}
.entries{list-style:none}
.entries li{padding:4px 0}
vga-core{display:block;width:100%;height:100%}
</style>
</head>
<body>
{{if .Alert}}<div class="alert" role="alert">{{.Alert}}</div>{{end}}
{{template "content" .}}
</body>
</html>
{{end}}
`

// ── Acquisition page ──────────────────────────────────────────────────────────

const tmplShell = `
{{define "content"}}
<header class="header">
  <img class="logo" src="/icons/vga.svg" alt="VGA App">
  <span class="brand">Visualization for Geospatial Analysis</span>
  {{if .CanGoBack}}<form method="post" action="/history/back"><button>Back</button></form>{{end}}
  {{if .CanGoForward}}<form method="post" action="/history/forward"><button>Forward</button></form>{{end}}
  <a class="button" href="/open/file">Load Config File</a>
  <form method="post" action="/open/url">
    <input type="url" name="url" placeholder="Enter a URL to the config file" aria-label="Config URL">
    <button>Load Config URL</button>
  </form>
</header>
<main>
  <section class="intro">{{.Intro}}</section>

  <h2>Demos</h2>
  <div class="demos">
  {{range .Demos}}
    <a class="demo" href="/{{.Href}}"><img src="{{.Image}}" alt=""><span>{{.Label}}</span></a>
  {{end}}
  </div>

  <h2>Recent</h2>
  {{if .RecentsError}}
  <p class="dim">{{.RecentsError}}</p>
  {{else if not .Recents}}
  <p class="dim">No recent items</p>
  {{else}}
  <ul class="recents">
  {{range .Recents}}
    <li>
      <img src="{{orDefault .Icon "/icons/vga.svg"}}" alt="">
      <span class="name">{{orDefault .Name "VGA App"}}</span>
      <span class="src">{{.Label}}</span>
      <form method="post" action="/recents/{{.Index}}/open"><button>Open</button></form>
      <form method="post" action="/recents/{{.Index}}/remove"><button aria-label="Remove">Remove</button></form>
    </li>
  {{end}}
  </ul>
  {{end}}
</main>
{{if .SessionID}}
<script>
(() => {
  const scheme = location.protocol === "https:" ? "wss://" : "ws://";
  const ws = new WebSocket(scheme + location.host + "/api/sessions/{{.SessionID}}/ws");
  ws.onmessage = (e) => {
    const ev = JSON.parse(e.data);
    if (ev.type === "recents") location.reload();
  };
})();
</script>
{{end}}
{{end}}
`

// ── File picker ───────────────────────────────────────────────────────────────

const tmplPicker = `
{{define "content"}}
<header class="header">
  <img class="logo" src="/icons/vga.svg" alt="VGA App">
  <span class="brand">Load Config File</span>
  <a class="button" href="/">Cancel</a>
</header>
<main>
  <p class="dim">{{if .Dir}}{{.Dir}}{{else}}Configured directories{{end}} &middot; {{.Extension}} files</p>
  <ul class="entries">
  {{if .Dir}}<li><a href="/open/file?dir={{.Parent}}">..</a></li>{{end}}
  {{range .Entries}}
    {{if .IsDir}}
    <li><a href="/open/file?dir={{.Path}}">{{.Name}}/</a></li>
    {{else}}
    <li><form method="post" action="/open/file"><input type="hidden" name="path" value="{{.Path}}"><button>{{.Name}}</button></form></li>
    {{end}}
  {{else}}
    <li class="dim">No {{.Extension}} files here</li>
  {{end}}
  </ul>
</main>
{{end}}
`

// ── Visualization host ────────────────────────────────────────────────────────

const tmplHost = `
{{define "head"}}<link rel="icon" href="{{.Icon}}">
<script type="module" src="{{.Script}}"></script>{{end}}
{{define "content"}}
<vga-core allow-modifying-page-info></vga-core>
<script type="module">
const host = document.querySelector("vga-core");
host.configBaseUrl = {{.BaseURL}} || undefined;
host.config = {{.Config}};
</script>
{{end}}
`
