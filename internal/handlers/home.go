package handlers

import (
	"io"
	"net/http"
)

const homePage = `<!DOCTYPE html>
<html>
<head>
	<title>TherapyPal API</title>
	<style>
		body { font-family: Arial, sans-serif; margin: 40px; }
		#result { margin-top: 10px; padding: 10px; border: 1px solid #ccc; }
		.ok { background-color: #d4edda; color: #155724; }
		.fail { background-color: #f8d7da; color: #721c24; }
	</style>
</head>
<body>
	<h1>Welcome to TherapyPal API!</h1>
	<p>The server is running.</p>
	<p>Use <code>POST /chat</code> with <code>{"message": "your message"}</code> to interact with the API.</p>
	<p>Check <a href="/health">health status</a></p>
	<div style="margin-top: 20px;">
		<h3>Test the API:</h3>
		<button onclick="testAPI()">Test Chat Endpoint</button>
		<div id="result"></div>
	</div>
	<script>
		async function testAPI() {
			const resultDiv = document.getElementById('result');
			resultDiv.className = '';
			resultDiv.textContent = 'Testing...';
			try {
				const response = await fetch('/chat', {
					method: 'POST',
					headers: { 'Content-Type': 'application/json' },
					body: JSON.stringify({ message: 'Hello, this is a test message!' })
				});
				const data = await response.json();
				if (response.ok) {
					resultDiv.textContent = 'Success: ' + data.response;
					resultDiv.className = 'ok';
				} else {
					resultDiv.textContent = 'Error: ' + data.error + ' | Details: ' + (data.details || 'N/A');
					resultDiv.className = 'fail';
				}
			} catch (error) {
				resultDiv.textContent = 'Network Error: ' + error.message;
				resultDiv.className = 'fail';
			}
		}
	</script>
</body>
</html>
`

// Home serves the HTML test page.
func Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, homePage)
}
