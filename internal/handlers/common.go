// common.go
//
// Shared handler plumbing: error rendering and request decoding
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of homespace.
// homespace is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// homespace is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with homespace.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/homespace/internal/types"
	"github.com/localnerve/homespace/internal/utils"
	"go.uber.org/zap"
)

// ErrorHandler renders every error as the JSON error envelope. Domain errors keep their
// status and type; anything else is logged and reported as a bare 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var custom *types.CustomError
		if errors.As(err, &custom) {
			return utils.ErrorResponse(c, custom.Message, custom.Code, custom.Type)
		}

		// Check if it's a Fiber error
		var fe *fiber.Error
		if errors.As(err, &fe) {
			errorType := "request"
			if fe.Code == fiber.StatusNotFound {
				errorType = "data.notfound"
			}
			return utils.ErrorResponse(c, fe.Message, fe.Code, errorType)
		}

		log.Error("unhandled request error",
			zap.String("method", c.Method()),
			zap.String("url", c.OriginalURL()),
			zap.Error(err),
		)
		return utils.ErrorResponse(c, "Internal Server Error", fiber.StatusInternalServerError, "unknown")
	}
}

// NotFound answers requests that matched no route
func NotFound(c *fiber.Ctx) error {
	return utils.NotFoundResponse(c, "[404] Resource Not Found")
}

func invalidBody(err error) error {
	return types.Validation("Invalid request body: %v", err)
}

// patchFields decodes a JSON object body keeping each member raw, so that a member sent as
// null can be told apart from one that was left out.
func patchFields(c *fiber.Ctx) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	body := c.Body()
	if len(body) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, invalidBody(err)
	}
	return fields, nil
}

// decodeField unmarshals fields[key] into target and reports whether the key was present.
func decodeField(fields map[string]json.RawMessage, key string, target interface{}) (bool, error) {
	raw, ok := fields[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return true, types.Validation("Invalid value for %s: %v", key, err)
	}
	return true, nil
}

// isNull reports whether fields[key] was sent as an explicit null
func isNull(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	return ok && string(raw) == "null"
}

// queryBool parses an optional boolean query parameter
func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, types.Validation("Query parameter %s must be a boolean", key)
	}
	return &v, nil
}
