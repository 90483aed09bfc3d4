package proxy

const (
	allowedMethods = "GET, POST"

	methodNotAllowedHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>Method Not Allowed</title>
    <style>
        body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
        h1 { color: #d9534f; }
    </style>
</head>
<body>
    <h1>405 Method Not Allowed</h1>
    <p>%s is not forwarded. This proxy only relays %s.</p>
</body>
</html>`
)
