package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/user/image-update-checker/pkg/types"
)

// HTMLFormatter implementa ReportFormatter para generar reportes en formato HTML
type HTMLFormatter struct{}

// Format convierte un CheckResult en una página HTML autocontenida
func (f HTMLFormatter) Format(result types.CheckResult) (string, error) {
	var sb strings.Builder

	sb.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Image Update Report</title>
    <link href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.2/dist/css/bootstrap.min.css" rel="stylesheet">
    <style>
        :root {
            --bg-primary: #0d1117;
            --bg-secondary: #161b22;
            --bg-tertiary: #21262d;
            --border-color: #30363d;
            --text-primary: #c9d1d9;
            --text-secondary: #8b949e;
            --accent-green: #238636;
            --accent-yellow: #d29922;
            --accent-red: #da3633;
            --accent-blue: #58a6ff;
        }

        body {
            background: var(--bg-primary);
            color: var(--text-primary);
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'Noto Sans', Helvetica, Arial, sans-serif;
        }

        .container {
            max-width: 1100px;
        }

        .report-header {
            border-bottom: 1px solid var(--border-color);
            padding: 1.5rem 0 1rem;
            margin-bottom: 1.5rem;
        }

        .report-header h1 {
            font-size: 1.4rem;
            margin: 0;
        }

        .report-header .timestamp {
            color: var(--text-secondary);
            font-size: 0.85rem;
        }

        .metric-box {
            background: var(--bg-tertiary);
            border: 1px solid var(--border-color);
            border-radius: 8px;
            padding: 1rem;
            margin-bottom: 1rem;
        }

        .metric-value {
            font-size: 2rem;
            font-weight: 600;
            line-height: 1;
            margin-bottom: 0.5rem;
        }

        .metric-label {
            color: var(--text-secondary);
            font-size: 0.85rem;
        }

        .status-badge {
            background: var(--bg-tertiary);
            border: 1px solid var(--border-color);
            border-radius: 6px;
            padding: 0.75rem 1rem;
            display: inline-flex;
            align-items: center;
            gap: 0.5rem;
            margin-bottom: 1.5rem;
        }

        .status-badge.warning {
            border-color: var(--accent-yellow);
            background: rgba(210, 153, 34, 0.1);
        }

        .status-badge.success {
            border-color: var(--accent-green);
            background: rgba(35, 134, 54, 0.1);
        }

        .table-updates {
            background: var(--bg-secondary);
            border: 1px solid var(--border-color);
            border-radius: 8px;
            overflow: hidden;
        }

        .table-updates .table {
            color: var(--text-primary);
            background: transparent;
            margin-bottom: 0;
        }

        .table-updates th {
            color: var(--text-secondary);
            font-weight: 600;
            font-size: 0.85rem;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            padding: 1rem;
            border: none;
            background: var(--bg-tertiary);
        }

        .table-updates td {
            color: var(--text-primary);
            padding: 1rem;
            border-top: 1px solid var(--border-color);
            vertical-align: middle;
            background: transparent;
        }

        .image-tag {
            font-family: 'SF Mono', 'Monaco', 'Inconsolata', 'Courier New', monospace;
            font-size: 0.85rem;
            background: var(--bg-primary);
            padding: 0.4rem 0.6rem;
            border-radius: 4px;
            color: var(--text-secondary);
            display: inline-block;
            word-break: break-all;
        }

        .badge-type {
            padding: 0.4rem 0.75rem;
            border-radius: 4px;
            font-size: 0.75rem;
            font-weight: 600;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            display: inline-block;
        }

        .badge-patch {
            background: rgba(35, 134, 54, 0.2);
            color: #3fb950;
            border: 1px solid rgba(35, 134, 54, 0.3);
        }

        .badge-minor {
            background: rgba(210, 153, 34, 0.2);
            color: #d29922;
            border: 1px solid rgba(210, 153, 34, 0.3);
        }

        .badge-major {
            background: rgba(218, 54, 51, 0.2);
            color: #f85149;
            border: 1px solid rgba(218, 54, 51, 0.3);
        }

        .badge-unknown {
            background: rgba(139, 148, 158, 0.2);
            color: #8b949e;
            border: 1px solid rgba(139, 148, 158, 0.3);
        }

        .error-list {
            background: var(--bg-secondary);
            border: 1px solid var(--border-color);
            border-radius: 8px;
            padding: 1rem;
        }

        .error-list ul {
            margin-bottom: 0;
            color: var(--accent-red);
        }

        .section-title {
            font-size: 1.1rem;
            margin: 1.5rem 0 1rem;
            padding-bottom: 0.75rem;
            border-bottom: 1px solid var(--border-color);
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="report-header">
            <h1>Image Update Report</h1>
            <span class="timestamp">` + result.CheckedAt.Format("Jan 2, 2006 15:04 MST") + `</span>
        </div>
`)

	updated := result.UpdatedReferences()
	failed := result.FailedReferences()

	// Métricas
	sb.WriteString(`
        <div class="row">
            <div class="col-md-3">
                <div class="metric-box">
                    <div class="metric-value" style="color: var(--accent-blue);">` + fmt.Sprintf("%d", len(result.Reports)) + `</div>
                    <div class="metric-label">References Checked</div>
                </div>
            </div>
            <div class="col-md-3">
                <div class="metric-box">
                    <div class="metric-value" style="color: var(--accent-yellow);">` + fmt.Sprintf("%d", len(updated)) + `</div>
                    <div class="metric-label">With Updates</div>
                </div>
            </div>
            <div class="col-md-3">
                <div class="metric-box">
                    <div class="metric-value" style="color: var(--accent-green);">` + fmt.Sprintf("%d", result.UpToDateCount()) + `</div>
                    <div class="metric-label">Up to Date</div>
                </div>
            </div>
            <div class="col-md-3">
                <div class="metric-box">
                    <div class="metric-value" style="color: var(--accent-red);">` + fmt.Sprintf("%d", len(failed)) + `</div>
                    <div class="metric-label">Failed</div>
                </div>
            </div>
        </div>
`)

	// Estado general
	if result.HasUpdates() {
		sb.WriteString(`
        <div class="status-badge warning">
            <span><strong>` + html.EscapeString(result.Summary()) + `</strong></span>
        </div>`)
	} else {
		sb.WriteString(`
        <div class="status-badge success">
            <span><strong>` + html.EscapeString(result.Summary()) + `</strong></span>
        </div>`)
	}

	// Tabla de actualizaciones
	if len(updated) > 0 {
		sb.WriteString(`
        <h5 class="section-title">Available Updates</h5>
        <div class="table-updates">
            <table class="table">
                <thead>
                    <tr>
                        <th style="width: 35%;">Image</th>
                        <th style="width: 15%;">Current</th>
                        <th style="width: 15%;">Latest</th>
                        <th style="width: 20%;">Newer Tags</th>
                        <th style="width: 15%;">Type</th>
                    </tr>
                </thead>
                <tbody>`)

		for _, report := range updated {
			sb.WriteString(`
                    <tr>
                        <td><code class="image-tag">` + html.EscapeString(imageName(report.Image)) + `</code></td>
                        <td><code class="image-tag">` + html.EscapeString(report.Image.Tag) + `</code></td>
                        <td><code class="image-tag">` + html.EscapeString(report.LatestTag) + `</code></td>
                        <td>` + fmt.Sprintf("%d", len(report.NewerTags)) + `</td>
                        <td><span class="badge-type ` + badgeClass(report.UpdateType) + `">` + html.EscapeString(report.UpdateType.String()) + `</span></td>
                    </tr>`)
		}

		sb.WriteString(`
                </tbody>
            </table>
        </div>`)
	}

	// Errores
	if len(failed) > 0 {
		sb.WriteString(`
        <h5 class="section-title">Errors</h5>
        <div class="error-list">
            <ul>`)
		for _, report := range failed {
			sb.WriteString("<li>" + html.EscapeString(report.Reference) + ": " + html.EscapeString(report.Error) + "</li>")
		}
		sb.WriteString(`
            </ul>
        </div>`)
	}

	sb.WriteString(`
    </div>
</body>
</html>`)

	return sb.String(), nil
}

// imageName muestra el repositorio con su registro cuando no es el de Docker Hub
func imageName(image types.ImageReference) string {
	if image.Registry == "" || image.Registry == types.DefaultRegistry {
		return image.Repository
	}
	return image.Registry + "/" + image.Repository
}

// badgeClass mapea el tipo de actualización a su clase CSS
func badgeClass(updateType types.UpdateType) string {
	switch updateType {
	case types.UpdateTypePatch:
		return "badge-patch"
	case types.UpdateTypeMinor:
		return "badge-minor"
	case types.UpdateTypeMajor:
		return "badge-major"
	default:
		return "badge-unknown"
	}
}

// FormatName devuelve el nombre del formato
func (f HTMLFormatter) FormatName() string {
	return "html"
}
