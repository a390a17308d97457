package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UploadPage serves the mobile quick-upload form reached by scanning the
// upload QR code. The device ID travels in the query string and is handled
// client-side, so the page itself is static.
func UploadPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(uploadPageHTML))
}

const uploadPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Upload File</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body {
            font-family: Arial, sans-serif;
            margin: 20px;
            background-color: #f5f5f5;
        }
        .upload-container {
            max-width: 500px;
            margin: 0 auto;
            background: white;
            padding: 20px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        h1 {
            color: #1976d2;
            text-align: center;
        }
        .file-input {
            margin: 20px 0;
            width: 100%;
        }
        .submit-btn {
            background-color: #1976d2;
            color: white;
            padding: 10px 20px;
            border: none;
            border-radius: 4px;
            cursor: pointer;
            width: 100%;
            font-size: 16px;
        }
        .submit-btn:hover {
            background-color: #1565c0;
        }
        .status {
            margin-top: 20px;
            text-align: center;
            color: #666;
        }
        .success-message {
            margin-top: 20px;
            padding: 15px;
            background-color: #e8f5e8;
            border: 1px solid #4caf50;
            border-radius: 4px;
            color: #2e7d32;
        }
        .error-message {
            margin-top: 20px;
            padding: 15px;
            background-color: #ffebee;
            border: 1px solid #f44336;
            border-radius: 4px;
            color: #c62828;
        }
    </style>
</head>
<body>
    <div class="upload-container">
        <h1>Upload File</h1>
        <form id="uploadForm" enctype="multipart/form-data">
            <input type="file" name="file" class="file-input" required>
            <button type="submit" class="submit-btn">Upload</button>
        </form>
        <div id="status" class="status"></div>
    </div>
    <script>
        // Device ID travels in the QR code's URL; fall back to a stored or
        // freshly generated one when the page is opened directly.
        function getDeviceId() {
            const urlParams = new URLSearchParams(window.location.search);
            const deviceIdFromUrl = urlParams.get('deviceId');

            if (deviceIdFromUrl) {
                return deviceIdFromUrl;
            }
            let deviceId = localStorage.getItem('deviceId');
            if (!deviceId) {
                deviceId = 'device_' + Math.random().toString(36).substr(2, 9);
                localStorage.setItem('deviceId', deviceId);
            }
            return deviceId;
        }

        document.getElementById('uploadForm').onsubmit = async (e) => {
            e.preventDefault();
            const status = document.getElementById('status');
            status.textContent = 'Uploading...';
            status.className = 'status';

            const formData = new FormData(e.target);
            const deviceId = getDeviceId();

            try {
                const response = await fetch('/api/files/upload', {
                    method: 'POST',
                    headers: {
                        'device-id': deviceId
                    },
                    body: formData
                });
                const data = await response.json();
                if (response.ok) {
                    status.innerHTML = '<div class="success-message">File uploaded successfully!<br><small>This file will appear in your recent files on the main website.</small></div>';
                } else {
                    throw new Error(data.message || 'Upload failed');
                }
            } catch (error) {
                status.innerHTML = '<div class="error-message">Error: ' + error.message + '</div>';
            }
        };
    </script>
</body>
</html>
`
