package router

import "html/template"

const pageStyle = `
body { font-family: Arial, sans-serif; margin: 20px; background: #f0f4f8; }
.container { max-width: 860px; margin: 0 auto; }
.card { background: white; padding: 25px; border-radius: 10px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); margin-bottom: 30px; }
input { padding: 10px; margin: 10px 0; width: 200px; border: 1px solid #ddd; border-radius: 4px; }
button { background: #2196F3; color: white; padding: 12px 24px; border: none; border-radius: 4px; cursor: pointer; }
.result { margin-top: 20px; padding: 15px; background: #e8f5e9; border-radius: 4px; }
.error { background: #ffebee; }
.notice { color: #8d6e63; font-size: 0.9em; }
img { max-width: 100%; }
`

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>Climate Predictor</title>
  <style>` + pageStyle + `</style>
</head>
<body>
  <div class="container">
    <h1>Climate Predictor</h1>

    <div class="card">
      <h2>CO2 simulator</h2>
      {{if .Fallback}}<p class="notice">Serving the demonstration model; no trained artifact was found.</p>{{end}}
      <form id="predictForm">
        {{range .Features}}
        <label for="{{.}}">{{.}}</label><br>
        <input type="number" step="any" id="{{.}}" name="{{.}}" required><br>
        {{end}}
        <button type="submit">Estimate {{.Target}}</button>
      </form>
      <div id="predictionResult" class="result" hidden></div>
    </div>

    <div class="card">
      <h2>Historical trend</h2>
      <img src="/charts/timeline.png" alt="Temperature anomaly by year">
      <p><a href="/visualization">More charts</a></p>
    </div>
  </div>

  <script>
    async function handlePrediction(e) {
      e.preventDefault();
      const body = {};
      for (const input of e.target.querySelectorAll('input')) {
        body[input.name] = parseFloat(input.value);
      }
      const out = document.getElementById('predictionResult');
      out.hidden = false;
      try {
        const response = await fetch('/predict', {
          method: 'POST',
          headers: { 'Content-Type': 'application/json' },
          body: JSON.stringify(body)
        });
        const result = await response.json();
        if (!response.ok) {
          out.className = 'result error';
          out.textContent = result.error;
          return;
        }
        out.className = 'result';
        out.innerHTML = 'Estimated anomaly: <span style="font-size:1.4em; color:#2e7d32;">' + result.prediction + ' °C</span>';
      } catch (error) {
        out.className = 'result error';
        out.textContent = String(error);
      }
    }

    document.getElementById('predictForm').addEventListener('submit', handlePrediction);
  </script>
</body>
</html>
`))

var visualizationTemplate = template.Must(template.New("visualization").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>Climate Predictor - Charts</title>
  <style>` + pageStyle + `</style>
</head>
<body>
  <div class="container">
    <h1>Climate charts</h1>
    <div class="card">
      <h2>Global temperature anomaly</h2>
      <img src="/charts/timeline.png" alt="Temperature anomaly by year">
    </div>
    <div class="card">
      <h2>CO2 vs temperature</h2>
      <img src="/charts/correlation.png" alt="Temperature anomaly against CO2">
    </div>
    <p><a href="/">Back to the predictor</a></p>
  </div>
</body>
</html>
`))
