/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/valpere/difftran/internal/translator"
)

// buildServices constructs the provider list for the fallback chain, in
// the order given. ollamaModels may be nil to use the defaults.
func buildServices(serviceNames []string, credentials, projectID, systranAPIKey, mymemoryEmailAddr, ollamaBaseURL string, ollamaModels []string) ([]translator.Service, error) {
	var list []translator.Service

	for _, name := range serviceNames {
		switch name {
		case "google":
			list = append(list, translator.NewGoogleService(credentials, projectID))
		case "systran":
			list = append(list, translator.NewSystranService(systranAPIKey))
		case "mymemory":
			list = append(list, translator.NewMyMemoryService(mymemoryEmailAddr))
		case "ollama":
			list = append(list, translator.NewOllamaService(ollamaBaseURL, ollamaModels))
		default:
			fmt.Fprintf(os.Stderr, "Unknown service: %s, skipping\n", name)
		}
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("no valid services configured")
	}
	return list, nil
}
