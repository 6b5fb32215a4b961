// Package handler содержит HTTP обработчики ретранслятора запросов поиска номеров телефонов.
//
// Обработчики проверяют только форму запроса (наличие номера, массив номеров)
// и передают запрос сервису поиска номеров. Успешный ответ сервиса возвращается
// клиенту без изменений, ошибки оборачиваются в {"erro": ..., "detalhe": ...}.
package handler
