// Package garment содержит доменную модель вещи и движок достижений Pantheon UnderLiv.
//
// Вещь (Garment) копит стирки, может быть списана и получает достижения
// при достижении порогов каталога. Evaluate - чистая функция: по текущему
// набору достижений и числу стирок возвращает только новые.
//
// Пакет не зависит от инфраструктуры: хранилище описано интерфейсом Store,
// реализации находятся в infrastructure/persistence.
package garment
