package log

import (
	"fmt"

	"github.com/mbndr/figlet4go"
)

// PrintLogo renders the service name as an ascii banner on start up.
func PrintLogo(name string, hexColors []string) {
	render := figlet4go.NewAsciiRender()

	options := figlet4go.NewRenderOptions()
	options.FontColor = make([]figlet4go.Color, 0, len(hexColors))
	for _, hex := range hexColors {
		clr, err := figlet4go.NewTrueColorFromHexString(hex)
		if err != nil {
			continue
		}
		options.FontColor = append(options.FontColor, clr)
	}

	logo, err := render.RenderOpts(name, options)
	if err != nil {
		return
	}

	fmt.Print(logo)
}
