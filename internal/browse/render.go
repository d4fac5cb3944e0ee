package browse

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"math/bits"
	"net"
	"strings"
	"time"

	"dirindex/internal/locale"
	"dirindex/internal/model"
	"dirindex/internal/theme"
)

// Page is everything the listing template needs. It is built per request.
type Page struct {
	Lang     string
	Dir      string
	Table    locale.Table
	Path     string
	Parent   *Row
	Rows     []Row
	Entries  []model.FsEntry
	Listing  model.Listing
	Sorts    SortLinks
	Style    template.CSS
	Theme    theme.Settings
	Favicon  string
	SiteName string
	Base     string
}

type Row struct {
	Name     string
	Link     string
	Icon     string
	Size     string
	Modified string
	IsDir    bool
	Thumb    string
}

type SortLinks struct {
	Name     string
	Size     string
	Modified string
}

// Title is the page title with the site name appended when there is one.
func (page Page) Title() string {
	title := page.Table.Text(`directory_listing`)
	if page.SiteName != `` {
		title += ` - ` + page.SiteName
	}
	return title
}

var sizeUnits = []string{`B`, `KB`, `MB`, `GB`, `TB`}

func formatSize(size int64) string {
	if size < 0 {
		size = 0
	}
	index := (bits.Len64(uint64(size)) - 1) / 10
	if index < 0 {
		index = 0
	} else if index >= len(sizeUnits) {
		index = len(sizeUnits) - 1
	}
	return fmt.Sprintf(`%.2f%s`, float64(size)/math.Pow(1024, float64(index)), sizeUnits[index])
}

func formatTime(when time.Time) string {
	return when.UTC().Format(`2006-01-02T15:04:05+00:00`)
}

// siteName turns files.example.com into "files example", dropping the port and
// the top level domain.
func siteName(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	labels := strings.Split(host, `.`)
	if len(labels) > 1 {
		labels = labels[:len(labels)-1]
	}
	return strings.Join(labels, ` `)
}

var mimeIcons = map[string]string{
	`application/zip`:               `fas fa-file-archive`,
	`application/gzip`:              `fas fa-file-archive`,
	`application/x-tar`:             `fas fa-file-archive`,
	`application/x-7z-compressed`:   `fas fa-file-archive`,
	`application/vnd.rar`:           `fas fa-file-archive`,
	`application/msword`:            `fas fa-file-word`,
	`application/vnd.ms-excel`:      `fas fa-file-excel`,
	`application/vnd.ms-powerpoint`: `fas fa-file-powerpoint`,
	`application/json`:              `fas fa-file-code`,
	`text/javascript`:               `fab fa-js`,
	`text/html`:                     `fab fa-html5`,
	`text/css`:                      `fab fa-css3`,
	`text/x-python`:                 `fab fa-python`,
}

var kindIcons = map[model.FileType]string{
	model.FileTypeImage: `fas fa-image`,
	model.FileTypeVideo: `fas fa-video`,
	model.FileTypeAudio: `fas fa-music`,
	model.FileTypeText:  `fas fa-file-alt`,
	model.FileTypePdf:   `fas fa-file-pdf`,
}

func icon(entry model.FsEntry) string {
	if entry.IsDir {
		return `fas fa-folder-open`
	}
	mime, _, _ := strings.Cut(entry.MimeType, `;`)
	if icon, ok := mimeIcons[mime]; ok {
		return icon
	}
	if icon, ok := kindIcons[entry.Type]; ok {
		return icon
	}
	return `fas fa-file`
}

func style(settings theme.Settings) template.CSS {
	builder := strings.Builder{}
	for _, slot := range theme.Slots {
		fmt.Fprintf(&builder, `--%s:%s;`, slot, settings.Color(slot))
	}
	fmt.Fprintf(&builder, `--font:%s;`, settings.Font)
	return template.CSS(builder.String())
}

func render(w io.Writer, page Page) error {
	return listingTemplate.Execute(w, page)
}

const stylesheet = `
*,::after,::before{box-sizing:border-box}
body{font-family:var(--font);margin:20px;line-height:1.5;background-color:var(--background);color:var(--text)}
h1{text-align:center;color:var(--heading);font-weight:500;line-height:1.2}
a{text-decoration:none;color:var(--link);font-weight:700}
a:hover{text-decoration:underline}
.table-container{max-width:100%;margin:0 auto;overflow-x:auto}
table{border-collapse:collapse;width:100%;background-color:var(--surface);box-shadow:0 0 10px rgba(0,0,0,.1);margin-bottom:20px}
td,th{padding:12px;text-align:start;border-bottom:1px solid var(--border)}
th{background-color:var(--header)}
th a{color:inherit}
tbody tr:nth-of-type(odd){background-color:rgba(0,0,0,.03)}
tbody tr:hover{background-color:rgba(0,0,0,.075)}
.icon{text-align:center;width:30px;color:var(--theme)}
.thumb{max-width:48px;max-height:48px;vertical-align:middle}
.search-bar{margin-bottom:20px;text-align:center}
.search-bar input[type="search"]{width:300px;max-width:80%;padding:10px;border:1px solid var(--border);border-radius:4px}
.empty{text-align:center;color:var(--heading)}
@media(max-width:576px){.search-bar input[type="search"]{width:80%}}
`

var listingTemplate = template.Must(template.New(`dirindex.listing`).Parse(strings.TrimSpace(`
<!doctype html>
<html dir="{{ .Dir }}" lang="{{ .Lang }}">
<head>
  <meta charset="utf-8">
  <title>{{ .Title }}</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <meta name="title" content="{{ .Title }}">
  <meta name="description" content="{{ .Table.Text "head.description" }}">
  <meta name="theme-color" content="{{ .Theme.Color "theme" }}">
  <meta property="og:title" content="{{ .Title }}">
  <meta property="og:description" content="{{ .Table.Text "head.description" }}">
  <meta property="og:type" content="website">
  {{- if .SiteName }}
  <meta property="og:site_name" content="{{ .SiteName }}">
  {{- end }}
  <meta property="og:locale" content="{{ .Lang }}">
  {{- if .Favicon }}
  <meta property="og:image" content="{{ .Favicon }}">
  <link rel="icon" href="{{ .Favicon }}">
  {{- end }}
  <link href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/5.15.4/css/all.min.css" rel="stylesheet">
  <style>:root{ {{- .Style -}} }` + stylesheet + `</style>
</head>
<body>
  <h1>{{ .Table.Text "directory_listing" }}</h1>
  <form class="search-bar" method="get">
    <input type="hidden" name="dir" value="{{ .Path }}">
    <input type="hidden" name="sort" value="{{ .Listing.Sort }}">
    <input type="hidden" name="order" value="{{ .Listing.Order }}">
    <input type="search" name="q" value="{{ .Listing.Query }}" oninput="filterTable(this.value)" placeholder="{{ .Table.Text "body.search_placeholder" }}">
  </form>
  <div class="table-container">
    <table>
      <thead>
        <tr>
          <th class="icon">{{ .Table.Text "body.file" }}</th>
          <th><a href="{{ .Sorts.Name }}">{{ .Table.Text "body.name" }}</a></th>
          <th><a href="{{ .Sorts.Size }}">{{ .Table.Text "body.size" }}</a></th>
          <th><a href="{{ .Sorts.Modified }}">{{ .Table.Text "body.last_modified" }}</a></th>
        </tr>
      </thead>
      <tbody id="entries">
        {{- with .Parent }}
        <tr class="parent">
          <td class="icon"><i class="{{ .Icon }}"></i></td>
          <td><a href="{{ .Link }}">{{ .Name }}</a></td>
          <td></td>
          <td></td>
        </tr>
        {{- end }}
        {{- range .Rows }}
        <tr>
          <td class="icon">{{ if .Thumb }}<img class="thumb" src="{{ .Thumb }}" alt="" loading="lazy">{{ else }}<i class="{{ .Icon }}"></i>{{ end }}</td>
          <td><a href="{{ .Link }}">{{ .Name }}</a></td>
          <td>{{ .Size }}</td>
          <td>{{ if .Modified }}<time class="local-time" datetime="{{ .Modified }}">{{ .Modified }}</time>{{ end }}</td>
        </tr>
        {{- else }}
        <tr><td class="empty" colspan="4">{{ .Table.Text "body.empty" }}</td></tr>
        {{- end }}
      </tbody>
    </table>
  </div>
  <script>
    function filterTable(text) {
      text = text.toLowerCase();
      document.querySelectorAll("#entries tr:not(.parent)").forEach(function (row) {
        if (row.cells.length < 2) return;
        row.style.display = row.cells[1].innerText.toLowerCase().includes(text) ? "" : "none";
      });
    }
    document.querySelectorAll(".local-time").forEach(function (t) {
      var when = new Date(t.getAttribute("datetime"));
      if (!isNaN(when.getTime())) t.textContent = when.toLocaleString(document.documentElement.lang);
    });
  </script>
</body>
</html>
`) + "\n"))

var previewTemplate = template.Must(template.New(`dirindex.preview`).Parse(strings.TrimSpace(`
<!doctype html>
<html dir="{{ .Dir }}" lang="{{ .Lang }}">
<head>
  <meta charset="utf-8">
  <title>{{ .Name }}</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <meta name="theme-color" content="{{ .Theme.Color "theme" }}">
  {{- if .Favicon }}
  <link rel="icon" href="{{ .Favicon }}">
  {{- end }}
  <style>:root{ {{- .Style -}} }
body{font-family:var(--font);margin:0 auto;max-width:900px;padding:20px;line-height:1.6;background-color:var(--background);color:var(--text)}
article{background-color:var(--surface);padding:20px 40px;box-shadow:0 0 10px rgba(0,0,0,.1)}
h1,h2,h3{color:var(--heading)}
a{color:var(--link)}
pre{overflow-x:auto;padding:12px;background-color:var(--header);border:1px solid var(--border)}
code{font-family:ui-monospace,monospace}
nav{margin-bottom:12px}
</style>
</head>
<body>
  <nav><a href="{{ .Raw }}">{{ .Name }}</a></nav>
  <article>{{ .Body }}</article>
</body>
</html>
`) + "\n"))

type preview struct {
	Lang    string
	Dir     string
	Name    string
	Raw     string
	Body    template.HTML
	Style   template.CSS
	Theme   theme.Settings
	Favicon string
}
