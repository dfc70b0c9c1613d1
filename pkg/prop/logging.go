package prop

import "github.com/pablodawson/proyecto-vision/internal/logging"

var logger = logging.NewLogger("proyecto-vision/prop")
