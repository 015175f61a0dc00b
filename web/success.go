package web

// authorizationSuccessPage is the confirmation document shown after a
// successful OAuth callback. It closes itself after a short delay.
const authorizationSuccessPage = `<html>
<head>
    <title>HubSpot Authorization Success</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background-color: #f5f8fa;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
        }
        .container {
            background: white;
            padding: 2rem;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);
            text-align: center;
            max-width: 400px;
        }
        .success-icon {
            color: #00bf8f;
            font-size: 48px;
            margin-bottom: 1rem;
        }
        h1 {
            color: #33475b;
            font-size: 24px;
            margin-bottom: 1rem;
        }
        p {
            color: #516f90;
            margin-bottom: 1.5rem;
        }
        .close-message {
            color: #8795a1;
            font-size: 14px;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="success-icon">&#10003;</div>
        <h1>Authorization Successful!</h1>
        <p>Your HubSpot account has been successfully connected.</p>
        <p class="close-message">This window will close automatically...</p>
    </div>
    <script>
        setTimeout(function() {
            window.close();
        }, 2000);
    </script>
</body>
</html>
`
