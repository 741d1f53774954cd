package commands

import "github.com/go-viper/mapstructure/v2"

// decodeDocument maps a generic JSON document onto out using json tags.
func decodeDocument(doc map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(doc)
}
