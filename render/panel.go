// Package render turns store state into what a presentation surface shows.
// Everything here is a pure function of its arguments.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/ViniZap4/paper-server/todo"
)

// Panel is the state the todo panel is drawn from.
type Panel struct {
	Items   []todo.Item
	Warning string
}

var templates = template.Must(template.New("list").Parse(listTemplate))

func init() {
	template.Must(templates.New("todos").Parse(todosTemplate))
	template.Must(templates.New("startup").Parse(startupTemplate))
}

// PanelFrom builds the panel state from a store snapshot.
func PanelFrom(snap todo.Snapshot) Panel {
	p := Panel{Items: snap.Items()}
	if snap.Warning != nil {
		p.Warning = snap.Warning.Error()
	}
	return p
}

// TodoPanel renders the full todo panel page.
func TodoPanel(p Panel) (string, error) {
	return execute("todos", p)
}

// TodoList renders only the list element, which the panel swaps in place
// when new state arrives.
func TodoList(p Panel) (string, error) {
	return execute("list", p)
}

// Startup renders the screen shown while no notes folder is selected.
func Startup() (string, error) {
	return execute("startup", nil)
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

const listTemplate = `<div id="todo-state">
{{- if .Warning}}<p class="warning">{{.Warning}}</p>{{end}}
<ul id="todo-list">
{{- range .Items}}
  <li>
    <input type="checkbox" data-id="{{.ID}}" data-index="{{.Index}}"{{if .Done}} checked{{end}} />
    <span style="text-decoration: {{if .Done}}line-through{{else}}none{{end}};">{{.Text}}</span>
  </li>
{{- end}}
</ul>
</div>`

const bridgeScript = `
    const send = (function () {
      if (typeof acquireVsCodeApi === 'function') {
        const api = acquireVsCodeApi();
        window.addEventListener('message', e => apply(e.data));
        return msg => api.postMessage(msg);
      }
      const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
      const ws = new WebSocket(scheme + location.host + SOCKET_PATH + location.search);
      const queue = [];
      ws.addEventListener('open', () => queue.splice(0).forEach(m => ws.send(JSON.stringify(m))));
      ws.addEventListener('message', e => apply(JSON.parse(e.data)));
      return msg => ws.readyState === WebSocket.OPEN ? ws.send(JSON.stringify(msg)) : queue.push(msg);
    })();
`

const todosTemplate = `<html>
  <body style="padding: 10px;">
    <form id="todo-form">
      <input type="text" id="new-todo" placeholder="Add a task" style="width: 80%;" />
      <button type="submit">Add</button>
    </form>
    {{template "list" .}}
    <script>
      const SOCKET_PATH = '/ws/todos';
      function apply(msg) {
        if (msg && msg.type === 'todos' && msg.html) {
          document.getElementById('todo-state').outerHTML = msg.html;
        }
      }
` + bridgeScript + `
      document.getElementById('todo-form').addEventListener('submit', e => {
        e.preventDefault();
        const input = document.getElementById('new-todo');
        if (input.value.trim()) {
          send({ type: 'add', text: input.value.trim() });
          input.value = '';
        }
      });
      document.addEventListener('change', e => {
        const box = e.target;
        if (box.matches && box.matches('#todo-list input[type="checkbox"]')) {
          send({ type: 'toggle', id: box.dataset.id, index: parseInt(box.dataset.index, 10) });
        }
      });
    </script>
  </body>
</html>`

const startupTemplate = `<html>
  <body style="padding:16px; font-family: var(--vscode-font-family); background-color: var(--vscode-sideBar-background); color: var(--vscode-foreground);">
    <h3>Paper: Notes + Todos</h3>
    <p>No folder selected.</p>
    <button id="selectFolder" style="background-color: var(--vscode-button-background); color: var(--vscode-button-foreground); border: none; padding: 8px 14px; border-radius: 4px; cursor: pointer;">
      Select a folder to get started
    </button>
    <script>
      const SOCKET_PATH = '/ws/startup';
      function apply(msg) {
        if (msg && msg.type === 'folder_changed' && msg.directory) {
          location.reload();
        }
      }
` + bridgeScript + `
      document.getElementById('selectFolder').addEventListener('click', () => {
        send({ type: 'select-folder' });
      });
    </script>
  </body>
</html>`
