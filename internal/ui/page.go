package ui

import (
	"html/template"
	"net/http"
)

// handlePage serves the dashboard HTML page. All live data arrives over
// the /ws re-broadcast; the page itself is static.
func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <title>Forex Bot Dashboard</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 20px; background-color: #10141a; color: #e6e6e6; }
        .container { max-width: 1200px; margin: 0 auto; }
        .header { background: linear-gradient(135deg, #1f3b73 0%, #274060 100%); padding: 20px; border-radius: 10px; margin-bottom: 20px; }
        .header h1 { margin: 0; font-size: 2em; text-align: center; }
        .status-bar { display: flex; justify-content: space-between; align-items: center; background: #1a2029; padding: 15px; border-radius: 8px; margin-bottom: 20px; }
        .status-dot { display: inline-block; width: 12px; height: 12px; border-radius: 50%; margin-right: 8px; background-color: #dc3545; }
        .status-dot.connected { background-color: #28a745; }
        .controls button { padding: 8px 20px; margin-left: 10px; border: none; border-radius: 6px; font-weight: bold; cursor: pointer; }
        .btn-start { background-color: #28a745; color: white; }
        .btn-stop { background-color: #dc3545; color: white; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(280px, 1fr)); gap: 16px; margin-bottom: 20px; }
        .card { background: #1a2029; border-radius: 10px; padding: 16px; }
        .card h3 { margin-top: 0; border-bottom: 1px solid #2b3442; padding-bottom: 8px; }
        .metric { display: flex; justify-content: space-between; padding: 6px 0; }
        .metric-label { color: #9aa5b1; }
        .risk { padding: 2px 8px; border-radius: 4px; font-size: 0.85em; font-weight: bold; }
        .risk.low { background-color: #28a745; }
        .risk.medium { background-color: #ffc107; color: #222; }
        .risk.high { background-color: #fd7e14; }
        .risk.very-high { background-color: #dc3545; }
        .rec.buy { color: #28a745; font-weight: bold; }
        .rec.sell { color: #dc3545; font-weight: bold; }
        .rec.avoid { color: #ffc107; font-weight: bold; }
        .summary { display: grid; grid-template-columns: repeat(4, 1fr); gap: 16px; margin-bottom: 20px; }
        .summary .card { text-align: center; }
        .summary .value { font-size: 1.6em; font-weight: bold; }
        .log-panel { background: #0d1117; border-radius: 10px; padding: 12px; font-family: monospace; font-size: 0.85em; max-height: 320px; overflow-y: auto; }
        .log-panel div { padding: 2px 0; border-bottom: 1px solid #1a2029; }
        .log-time { color: #9aa5b1; margin-right: 8px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>Forex Trading Bot</h1></div>

        <div class="status-bar">
            <div><span class="status-dot" id="conn-dot"></span><span id="conn-label">Disconnected</span></div>
            <div id="market-status">STANDBY</div>
            <div class="controls">
                <button class="btn-start" onclick="sendCommand('start')">Start Bot</button>
                <button class="btn-stop" onclick="sendCommand('stop')">Stop Bot</button>
            </div>
        </div>

        <div class="summary">
            <div class="card"><div class="metric-label">Uptime</div><div class="value" id="uptime">00:00:00</div></div>
            <div class="card"><div class="metric-label">Signals Today</div><div class="value" id="signals">0</div></div>
            <div class="card"><div class="metric-label">Success Estimate</div><div class="value" id="success-rate">0%</div></div>
            <div class="card"><div class="metric-label">Last Update</div><div class="value" id="last-update">--</div></div>
        </div>

        <div class="grid" id="instrument-grid"></div>

        <h3>Activity Log</h3>
        <div class="log-panel" id="log-panel"></div>
    </div>

    <script>
        const ws = new WebSocket('ws://' + location.host + '/ws');
        ws.onmessage = function(event) { updateDashboard(JSON.parse(event.data)); };
        ws.onclose = function() { setTimeout(() => location.reload(), 5000); };

        function sendCommand(cmd) { fetch('/api/' + cmd, { method: 'POST' }); }

        function updateDashboard(data) {
            document.getElementById('conn-dot').className = 'status-dot' + (data.connected ? ' connected' : '');
            document.getElementById('conn-label').textContent = data.connection_label;
            document.getElementById('market-status').textContent = data.market_status;
            document.getElementById('uptime').textContent = data.uptime;
            document.getElementById('signals').textContent = data.signals_seen_today;
            document.getElementById('success-rate').textContent = data.success_rate_pct + '%';
            document.getElementById('last-update').textContent = new Date(data.timestamp).toLocaleTimeString();

            const grid = document.getElementById('instrument-grid');
            grid.innerHTML = '';
            for (const inst of data.instruments) {
                const price = inst.has_price ? inst.price.toFixed(5) : '--';
                const riskClass = inst.risk.class ? ' ' + inst.risk.class : '';
                const recClass = inst.recommendation.class ? ' ' + inst.recommendation.class : '';
                const action = inst.recommendation.action ? ' ' + inst.recommendation.action : '';
                const card = document.createElement('div');
                card.className = 'card';
                card.innerHTML =
                    '<h3>' + inst.name + '</h3>' +
                    '<div class="metric"><span class="metric-label">Price</span><span>' + price + '</span></div>' +
                    '<div class="metric"><span class="metric-label">Risk</span><span class="risk' + riskClass + '">' + inst.risk.text + '</span></div>' +
                    '<div class="metric"><span class="metric-label">Confidence</span><span>' + inst.confidence_pct + '%</span></div>' +
                    '<div class="metric"><span class="metric-label">Signal</span><span class="rec' + recClass + '">' + inst.recommendation.text + action + '</span></div>';
                grid.appendChild(card);
            }

            const panel = document.getElementById('log-panel');
            panel.innerHTML = '';
            for (const entry of data.logs) {
                const line = document.createElement('div');
                line.innerHTML = '<span class="log-time">[' + entry.timestamp + ']</span>' + entry.message;
                panel.appendChild(line);
            }
        }
    </script>
</body>
</html>
`

	t, err := template.New("dashboard").Parse(tmpl)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	t.Execute(w, nil)
}
